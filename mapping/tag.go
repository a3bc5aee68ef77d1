package mapping

import (
	"fmt"

	"bugmaschine/booru-mux/fieldpath"
	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/schema"
)

// MapTag converts one raw tag list record. Every field is mandatory; there is
// no skip path.
func MapTag(record any, f *schema.TagFields) (model.Tag, error) {
	obj, ok := record.(map[string]any)
	if !ok {
		return model.Tag{}, &FieldError{Expected: "object", Got: jsonType(record), Value: record}
	}

	id, err := tagUint(obj, f.ID)
	if err != nil {
		return model.Tag{}, err
	}
	name, err := tagName(obj, f.Name)
	if err != nil {
		return model.Tag{}, err
	}
	count, err := tagUint(obj, f.Count)
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{ID: id, Name: name, Count: count}, nil
}

// MapTags maps records in order. The first bad record fails the whole list.
func MapTags(records []any, f *schema.TagFields) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(records))
	for i, record := range records {
		tag, err := MapTag(record, f)
		if err != nil {
			return nil, fmt.Errorf("tag record %d: %w", i, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// ParseTags decodes a tag list response body and maps every tag in it.
func ParseTags(body []byte, s *schema.TagListSchema) ([]model.Tag, error) {
	root, err := Decode(body)
	if err != nil {
		return nil, err
	}
	records, err := Unwrap(root, s.ResultKey)
	if err != nil {
		return nil, err
	}
	return MapTags(records, &s.Tag)
}

func tagUint(obj map[string]any, path string) (uint64, error) {
	v := fieldpath.Lookup(obj, path)
	if v.IsAbsent() {
		return 0, &FieldError{Path: path, Expected: "non-negative integer"}
	}
	n, ok := asUint64(v.Raw)
	if !ok {
		return 0, &FieldError{Path: path, Expected: "non-negative integer", Got: jsonType(v.Raw), Value: v.Raw}
	}
	return n, nil
}

func tagName(obj map[string]any, path string) (string, error) {
	v := fieldpath.Lookup(obj, path)
	if v.IsAbsent() {
		return "", &FieldError{Path: path, Expected: "non-empty string"}
	}
	name, ok := v.Raw.(string)
	if !ok || name == "" {
		return "", &FieldError{Path: path, Expected: "non-empty string", Got: jsonType(v.Raw), Value: v.Raw}
	}
	return name, nil
}
