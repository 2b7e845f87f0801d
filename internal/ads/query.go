package ads

import "fmt"

// FirstAuthorQuery builds the default tracking query: first-author papers,
// expanded with the ORCID fields when an ORCID is known. ORCID-linked
// papers match regardless of author position.
func FirstAuthorQuery(forename, surname, orcid string) string {
	name := fmt.Sprintf("first_author:%q", surname+", "+forename)
	if orcid == "" {
		return name
	}
	return fmt.Sprintf(
		"orcid_pub:%s OR orcid_user:%s OR orcid_other:%s OR %s",
		orcid, orcid, orcid, name,
	)
}

// AnyAuthorQuery builds the deep-check query: papers with the author in any
// position, used to catch co-authored papers the default query misses.
func AnyAuthorQuery(forename, surname string) string {
	return fmt.Sprintf("author:%q", surname+", "+forename)
}

// AuthorQuery builds a one-off search query with a selectable author field.
func AuthorQuery(forename, surname, orcid string, firstAuthorOnly bool) string {
	if firstAuthorOnly {
		return FirstAuthorQuery(forename, surname, orcid)
	}
	name := AnyAuthorQuery(forename, surname)
	if orcid == "" {
		return name
	}
	return fmt.Sprintf(
		"orcid_pub:%s OR orcid_user:%s OR orcid_other:%s OR %s",
		orcid, orcid, orcid, name,
	)
}
