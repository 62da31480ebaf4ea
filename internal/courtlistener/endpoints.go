// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package courtlistener

import (
	"context"
	"net/url"
	"strconv"
)

// Typed endpoint wrappers. List endpoints paginate with cursor URLs:
// pass the Next value of the previous page to continue, or "" for the
// first page. Every call consumes one quota unit.

// ListCourts fetches a page of courts, optionally filtered by
// jurisdiction code (e.g. "CA" for California state courts).
func (c *Client) ListCourts(ctx context.Context, jurisdiction, pageURL string) (*Page[Court], error) {
	var page Page[Court]
	if pageURL != "" {
		if err := c.followCursor(ctx, "courts", pageURL, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}

	params := url.Values{}
	if jurisdiction != "" {
		params.Set("jurisdiction", jurisdiction)
	}
	params.Set("in_use", "true")
	if err := c.get(ctx, "/api/rest/v4/courts/", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPeople fetches a page of judges serving in the given court.
func (c *Client) ListPeople(ctx context.Context, courtID, pageURL string) (*Page[Person], error) {
	var page Page[Person]
	if pageURL != "" {
		if err := c.followCursor(ctx, "people", pageURL, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}

	params := url.Values{}
	if courtID != "" {
		params.Set("positions__court", courtID)
	}
	if err := c.get(ctx, "/api/rest/v4/people/", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPerson fetches one judge with nested educations and political
// affiliations.
func (c *Client) GetPerson(ctx context.Context, personID int64) (*Person, error) {
	var person Person
	endpoint := "/api/rest/v4/people/" + strconv.FormatInt(personID, 10) + "/"
	if err := c.get(ctx, endpoint, nil, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// ListPositions fetches a page of judicial positions held by a person.
func (c *Client) ListPositions(ctx context.Context, personID int64, pageURL string) (*Page[Position], error) {
	var page Page[Position]
	if pageURL != "" {
		if err := c.followCursor(ctx, "positions", pageURL, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}

	params := url.Values{}
	params.Set("person", strconv.FormatInt(personID, 10))
	if err := c.get(ctx, "/api/rest/v4/positions/", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListOpinions fetches a page of opinions authored by a judge, newest
// first, optionally bounded by a minimum creation date (YYYY-MM-DD).
func (c *Client) ListOpinions(ctx context.Context, authorID int64, since, pageURL string) (*Page[Opinion], error) {
	var page Page[Opinion]
	if pageURL != "" {
		if err := c.followCursor(ctx, "opinions", pageURL, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}

	params := url.Values{}
	params.Set("author", strconv.FormatInt(authorID, 10))
	params.Set("order_by", "-date_created")
	if since != "" {
		params.Set("date_created__gte", since)
	}
	if err := c.get(ctx, "/api/rest/v4/opinions/", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListDockets fetches a page of dockets assigned to a judge,
// optionally bounded by a minimum filing date (YYYY-MM-DD).
func (c *Client) ListDockets(ctx context.Context, judgeID int64, since, pageURL string) (*Page[Docket], error) {
	var page Page[Docket]
	if pageURL != "" {
		if err := c.followCursor(ctx, "dockets", pageURL, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}

	params := url.Values{}
	params.Set("assigned_to", strconv.FormatInt(judgeID, 10))
	params.Set("order_by", "-date_filed")
	if since != "" {
		params.Set("date_filed__gte", since)
	}
	if err := c.get(ctx, "/api/rest/v4/dockets/", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// followCursor fetches a pagination URL returned by a previous page.
// Cursor URLs already carry their query string, but each fetch still
// costs quota inside the retry loop.
func (c *Client) followCursor(ctx context.Context, endpoint, pageURL string, result interface{}) error {
	return c.getURL(ctx, endpoint, pageURL, result)
}
