// Package extract turns raw Letterboxd HTML into typed records.
//
// Parsers are pure: they take response bodies and return values, leaving the
// network to the letterboxd and roulette packages. A missing optional field
// defaults to its zero value; only the absence of a structural prerequisite
// is reported, wrapped around scraper.ErrStructure.
package extract
