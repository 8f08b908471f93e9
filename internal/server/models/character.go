package models

// Character is the full, authoritative character sheet. It is stored
// encrypted, one object per id. Every field except ID is optional so older
// records that predate a field still decode.
type Character struct {
	System   string `json:"system,omitempty"`
	ID       string `json:"id"`
	Password string `json:"password,omitempty"`
	Image    string `json:"image,omitempty"`

	PlayerName    string `json:"playerName,omitempty"`
	CharacterName string `json:"characterName,omitempty"`
	MasterName    string `json:"masterName,omitempty"`

	HP ResourceModifier `json:"hp"`
	MP ResourceModifier `json:"mp"`
	WP ResourceModifier `json:"wp"`
	GL int              `json:"gl"`

	Experience int    `json:"experience,omitempty"`
	Species    string `json:"species,omitempty"`
	Style      string `json:"style,omitempty"`
	Element    string `json:"element,omitempty"`

	Appearance Appearance `json:"appearance"`
	Abilities  Abilities  `json:"abilities"`

	Origin string `json:"origin,omitempty"`
	Secret string `json:"secret,omitempty"`
	Future string `json:"future,omitempty"`

	Skills        []Skill       `json:"skills"`
	CombatValues  CombatValues  `json:"combatValues"`
	SpecialChecks SpecialChecks `json:"specialChecks"`
	Equipment     Equipment     `json:"equipment"`
	Items         []Item        `json:"items"`
	TotalWeight   int           `json:"totalWeight,omitempty"`

	UpdatedAt        string `json:"updatedAt,omitempty"`
	IsCopyProhibited bool   `json:"isCopyProhibited,omitempty"`
}

// HasPassword reports whether edits to the record are gated.
func (c *Character) HasPassword() bool {
	return c.Password != ""
}

// Redacted returns a shallow copy without the edit password, for read-only
// views.
func (c *Character) Redacted() *Character {
	cp := *c
	cp.Password = ""
	return &cp
}

type ResourceModifier struct {
	Modifier int `json:"modifier"`
}

type Appearance struct {
	Age       string `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Height    string `json:"height,omitempty"`
	Weight    string `json:"weight,omitempty"`
	HairColor string `json:"hairColor,omitempty"`
	EyeColor  string `json:"eyeColor,omitempty"`
	SkinColor string `json:"skinColor,omitempty"`
}

type AbilityScore struct {
	Base          int `json:"base,omitempty"`
	Bonus         int `json:"bonus"`
	OtherModifier int `json:"otherModifier"`
	Total         int `json:"total"`
	Adjusted      int `json:"adjusted,omitempty"`
}

type Abilities struct {
	Physical  AbilityScore `json:"physical"`
	Intellect AbilityScore `json:"intellect"`
	Mystic    AbilityScore `json:"mystic"`
	Agility   AbilityScore `json:"agility"`
	Passion   AbilityScore `json:"passion"`
	Affection AbilityScore `json:"affection"`
}

type Skill struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Effect string `json:"effect"`
}

type CombatValue struct {
	Modifier int `json:"modifier"`
}

type CombatValues struct {
	Magic   CombatValue `json:"magic"`
	Dodge   CombatValue `json:"dodge"`
	Defense CombatValue `json:"defense"`
}

type SpecialChecks struct {
	EnemyLore CombatValue `json:"enemyLore"`
	Appraisal CombatValue `json:"appraisal"`
}

type EquipmentItem struct {
	Name         string `json:"name"`
	Weight       int    `json:"weight"`
	HitMod       int    `json:"hitMod"`
	Damage       string `json:"damage"`
	Range        string `json:"range"`
	DodgeMod     int    `json:"dodgeMod"`
	DefenseMod   int    `json:"defenseMod"`
	MagicDefense int    `json:"magicDefense"`
	Notes        string `json:"notes"`
}

type Equipment struct {
	RHand     EquipmentItem `json:"rHand"`
	LHand     EquipmentItem `json:"lHand"`
	Head      EquipmentItem `json:"head"`
	Body      EquipmentItem `json:"body"`
	Accessory EquipmentItem `json:"accessory"`
	Guardian  EquipmentItem `json:"guardian"`
}

type Item struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Weight     int    `json:"weight"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
	IsEquipped bool   `json:"isEquipped,omitempty"`
}
