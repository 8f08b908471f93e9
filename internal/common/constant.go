package common

// EditCookiePrefix is prepended to a record id to name the cookie carrying
// its edit capability token.
const EditCookiePrefix = "edit_allowed_"

// EditScope is the only scope issued by the access gate.
const EditScope = "edit"

// SampleIDPrefix marks bundled sample characters. They are listed after all
// user records.
const SampleIDPrefix = "sample"

// EditCookieName returns the cookie name for the given record id.
func EditCookieName(id string) string {
	return EditCookiePrefix + id
}
