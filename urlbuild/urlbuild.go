// Package urlbuild turns a source schema and the caller's search parameters
// into a request url.
package urlbuild

import (
	"sort"
	"strconv"
	"strings"

	"bugmaschine/booru-mux/schema"
)

// tagEscaper percent-encodes the characters that would end or corrupt the
// tags query parameter. Everything else is passed through so servers see the
// tag the way users type it ("rating:s", "order:id_desc").
var tagEscaper = strings.NewReplacer(
	"%", "%25",
	"&", "%26",
	"#", "%23",
	"+", "%2B",
	"=", "%3D",
)

// NormalizeTag lower-cases a tag and replaces spaces with underscores, which
// is how image boards store tag names.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), " ", "_"))
}

// NormalizeTags normalizes, de-duplicates and sorts tags. Empty tags are
// dropped.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = NormalizeTag(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// TagExpression builds the value of the tags parameter: the ordering token if
// the source knows one for order, the included tags, the excluded tags with
// the exclusion prefix, and finally the source's implicit tags.
func TagExpression(s *schema.SearchSchema, order schema.Order, include, exclude []string) string {
	var tokens []string
	if token, ok := s.Order[order]; ok && token != "" {
		tokens = append(tokens, token)
	}
	for _, tag := range NormalizeTags(include) {
		tokens = append(tokens, tagEscaper.Replace(tag))
	}
	for _, tag := range NormalizeTags(exclude) {
		tokens = append(tokens, s.Exclusion()+tagEscaper.Replace(tag))
	}
	tokens = append(tokens, s.ImplicitTags...)
	return strings.Join(tokens, s.Separator())
}

// Search returns the url of one page of search results. Tags appear
// normalized and with % & # + = percent-encoded, not as the caller wrote them.
func Search(s *schema.SearchSchema, page, limit int, order schema.Order, include, exclude []string) string {
	var b strings.Builder
	b.WriteString(s.BaseURL)
	writeParam(&b, s.Parameters.Page, strconv.Itoa(page))
	writeParam(&b, s.Parameters.Limit, strconv.Itoa(limit))
	if expr := TagExpression(s, order, include, exclude); expr != "" {
		writeParam(&b, s.Parameters.Tags, expr)
	}
	return b.String()
}

// TagList returns the url of one page of the source's tag list.
func TagList(s *schema.TagListSchema, page, limit int) string {
	var b strings.Builder
	b.WriteString(s.BaseURL)
	writeParam(&b, s.Parameters.Page, strconv.Itoa(page))
	writeParam(&b, s.Parameters.Limit, strconv.Itoa(limit))
	if s.Parameters.Order != "" {
		b.WriteByte('&')
		b.WriteString(s.Parameters.Order)
	}
	return b.String()
}

// writeParam appends key=value, adding a separator unless the url already
// ends in one.
func writeParam(b *strings.Builder, key, value string) {
	if s := b.String(); s != "" && !strings.HasSuffix(s, "?") && !strings.HasSuffix(s, "&") {
		if strings.Contains(s, "?") {
			b.WriteByte('&')
		} else {
			b.WriteByte('?')
		}
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
}
