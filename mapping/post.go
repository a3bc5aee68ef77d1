package mapping

import (
	"fmt"
	"strings"

	"bugmaschine/booru-mux/fieldpath"
	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/schema"
)

// MapPost converts one raw record into a post. ok is false when the record
// must be skipped: it is not an object, or its id, score or rating is null,
// which is how sources mark deleted entries.
func MapPost(record any, s *schema.PostSchema) (post model.Post, ok bool, err error) {
	obj, isObj := record.(map[string]any)
	if !isObj {
		return model.Post{}, false, nil
	}

	id, ok, err := requiredUint(obj, s.ID)
	if !ok || err != nil {
		return model.Post{}, false, err
	}
	score, ok, err := requiredInt(obj, s.Score)
	if !ok || err != nil {
		return model.Post{}, false, err
	}
	rating, ok, err := requiredRating(obj, s.Rating, s.Ratings)
	if !ok || err != nil {
		return model.Post{}, false, err
	}
	tags, err := mapTags(obj, s.Tags)
	if err != nil {
		return model.Post{}, false, err
	}

	return model.Post{
		ID:          id,
		Score:       score,
		Rating:      rating,
		Tags:        tags,
		Hash:        optionalString(obj, s.Hash),
		ResourceURL: optionalString(obj, s.ResourceURL),
		PreviewURL:  optionalString(obj, s.PreviewURL),
	}, true, nil
}

// MapPosts maps records in order. Skipped records are left out and counted.
// The first hard error aborts the whole batch.
func MapPosts(records []any, s *schema.PostSchema) (posts []model.Post, skipped int, err error) {
	posts = make([]model.Post, 0, len(records))
	for i, record := range records {
		post, ok, err := MapPost(record, s)
		if err != nil {
			return nil, 0, fmt.Errorf("post record %d: %w", i, err)
		}
		if !ok {
			skipped++
			continue
		}
		posts = append(posts, post)
	}
	return posts, skipped, nil
}

// ParsePosts decodes a search response body and maps every post in it.
func ParsePosts(body []byte, s *schema.SearchSchema) (posts []model.Post, skipped int, err error) {
	root, err := Decode(body)
	if err != nil {
		return nil, 0, err
	}
	records, err := Unwrap(root, s.ResultKey)
	if err != nil {
		return nil, 0, err
	}
	return MapPosts(records, &s.Post)
}

func requiredUint(obj map[string]any, path string) (uint64, bool, error) {
	v := fieldpath.Lookup(obj, path)
	switch {
	case v.IsAbsent():
		return 0, false, &FieldError{Path: path, Expected: "non-negative integer"}
	case v.IsNull():
		return 0, false, nil
	}
	n, ok := asUint64(v.Raw)
	if !ok {
		return 0, false, &FieldError{Path: path, Expected: "non-negative integer", Got: jsonType(v.Raw), Value: v.Raw}
	}
	return n, true, nil
}

func requiredInt(obj map[string]any, path string) (int64, bool, error) {
	v := fieldpath.Lookup(obj, path)
	switch {
	case v.IsAbsent():
		return 0, false, &FieldError{Path: path, Expected: "integer"}
	case v.IsNull():
		return 0, false, nil
	}
	n, ok := asInt64(v.Raw)
	if !ok {
		return 0, false, &FieldError{Path: path, Expected: "integer", Got: jsonType(v.Raw), Value: v.Raw}
	}
	return n, true, nil
}

func requiredRating(obj map[string]any, path string, aliases map[string]model.Rating) (model.Rating, bool, error) {
	v := fieldpath.Lookup(obj, path)
	switch {
	case v.IsAbsent():
		return 0, false, &FieldError{Path: path, Expected: "string"}
	case v.IsNull():
		return 0, false, nil
	}
	alias, ok := v.Raw.(string)
	if !ok {
		return 0, false, &FieldError{Path: path, Expected: "string", Got: jsonType(v.Raw), Value: v.Raw}
	}
	rating, ok := aliases[alias]
	if !ok {
		return 0, false, &AliasError{Path: path, Alias: alias}
	}
	return rating, true, nil
}

func optionalString(obj map[string]any, path string) string {
	if path == "" {
		return ""
	}
	s, _ := fieldpath.Lookup(obj, path).Raw.(string)
	return s
}

func mapTags(obj map[string]any, ts schema.TagSchema) (model.Tags, error) {
	switch ts.Kind {
	case schema.FlatLayout:
		set, err := tagField(obj, ts.Key, ts.Separator)
		if err != nil {
			return model.Tags{}, err
		}
		return model.Tags{Flat: set}, nil

	case schema.CategorizedLayout:
		categories := make(map[string]model.TagSet, len(ts.Categories))
		for _, category := range ts.Categories {
			set, err := tagField(obj, ts.FieldFor(category), ts.Separator)
			if err != nil {
				return model.Tags{}, err
			}
			categories[category] = set
		}
		return model.CategorizedTags(categories), nil
	}
	return model.Tags{}, fmt.Errorf("%w: unknown tag layout %q", ErrInvalidSchema, ts.Kind)
}

// tagField reads a JSON array of tags, or a single string split on separator
// when one is set. Non-string array elements and empty split fragments are
// dropped; string elements are kept as they are.
func tagField(obj map[string]any, path, separator string) (model.TagSet, error) {
	v := fieldpath.Lookup(obj, path)

	if separator == "" {
		if v.IsAbsent() {
			return nil, &FieldError{Path: path, Expected: "array of strings"}
		}
		items, ok := v.Raw.([]any)
		if !ok {
			return nil, &FieldError{Path: path, Expected: "array of strings", Got: jsonType(v.Raw), Value: v.Raw}
		}
		tags := make([]string, 0, len(items))
		for _, item := range items {
			if tag, ok := item.(string); ok {
				tags = append(tags, tag)
			}
		}
		return model.NewTagSet(tags...), nil
	}

	if v.IsAbsent() {
		return nil, &FieldError{Path: path, Expected: "string"}
	}
	joined, ok := v.Raw.(string)
	if !ok {
		return nil, &FieldError{Path: path, Expected: "string", Got: jsonType(v.Raw), Value: v.Raw}
	}
	parts := strings.Split(joined, separator)
	tags := parts[:0]
	for _, part := range parts {
		if part != "" {
			tags = append(tags, part)
		}
	}
	return model.NewTagSet(tags...), nil
}
