// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package courtlistener

// Wire types for the CourtListener REST API (v4). Only the fields the
// sync pipeline reads are mapped; the API returns many more.

// Page is the standard CourtListener list envelope. Next carries the
// cursor URL for the following page, empty on the last page.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

// Person is a judge record from /api/rest/v4/people/.
type Person struct {
	ID           int64       `json:"id"`
	NameFirst    string      `json:"name_first"`
	NameMiddle   string      `json:"name_middle"`
	NameLast     string      `json:"name_last"`
	NameSuffix   string      `json:"name_suffix"`
	SlugID       string      `json:"slug"`
	DateDOB      string      `json:"date_dob"`
	Positions    []string    `json:"positions"`
	Educations   []Education `json:"educations"`
	PoliticalAffiliations []PoliticalAffiliation `json:"political_affiliations"`
}

// FullName joins the name parts, skipping empties.
func (p Person) FullName() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.NameFirst, p.NameMiddle, p.NameLast, p.NameSuffix} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	name := ""
	for i, s := range parts {
		if i > 0 {
			name += " "
		}
		name += s
	}
	return name
}

// Position is a judicial appointment from /api/rest/v4/positions/.
type Position struct {
	ID            int64  `json:"id"`
	PersonID      int64  `json:"person_id"`
	Court         string `json:"court"`
	CourtID       string `json:"court_id"`
	PositionType  string `json:"position_type"`
	JobTitle      string `json:"job_title"`
	DateStart     string `json:"date_start"`
	DateTermination string `json:"date_termination"`
	Location      string `json:"location_city"`
}

// Education is a degree record nested under a person.
type Education struct {
	ID         int64  `json:"id"`
	School     School `json:"school"`
	Degree     string `json:"degree_level"`
	DegreeYear int    `json:"degree_year"`
}

// School is the institution of an education record.
type School struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PoliticalAffiliation is a party affiliation record nested under a
// person.
type PoliticalAffiliation struct {
	PoliticalParty string `json:"political_party"`
	Source         string `json:"source"`
	DateStart      string `json:"date_start"`
}

// Court is a court record from /api/rest/v4/courts/.
type Court struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	ShortName    string `json:"short_name"`
	Jurisdiction string `json:"jurisdiction"`
	InUse        bool   `json:"in_use"`
	Position     string `json:"position"`
}

// Opinion is a decision record from /api/rest/v4/opinions/.
type Opinion struct {
	ID          int64  `json:"id"`
	AuthorID    int64  `json:"author_id"`
	Cluster     string `json:"cluster"`
	ClusterID   int64  `json:"cluster_id"`
	Type        string `json:"type"`
	DateCreated string `json:"date_created"`
	PlainText   string `json:"plain_text"`
}

// Docket is a case record from /api/rest/v4/dockets/.
type Docket struct {
	ID             int64  `json:"id"`
	CourtID        string `json:"court_id"`
	CaseName       string `json:"case_name"`
	DocketNumber   string `json:"docket_number"`
	NatureOfSuit   string `json:"nature_of_suit"`
	DateFiled      string `json:"date_filed"`
	DateTerminated string `json:"date_terminated"`
	Disposition    string `json:"disposition"`
	AssignedToID   int64  `json:"assigned_to_id"`
}
