package schema

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Validate checks that every field the mapper relies on is filled in. It does
// not contact the source.
func (s *Source) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if err := s.Search.validate(); err != nil {
		errs = append(errs, fmt.Errorf("search: %w", err))
	}
	if s.TagList != nil {
		if err := s.TagList.validate(); err != nil {
			errs = append(errs, fmt.Errorf("tag_list: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("source %q: %w", s.Name, err)
	}
	return nil
}

func (s *SearchSchema) validate() error {
	var errs []error
	require := func(name, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is empty", name))
		}
	}

	require("base_url", s.BaseURL)
	require("parameters.tags", s.Parameters.Tags)
	require("parameters.page", s.Parameters.Page)
	require("parameters.limit", s.Parameters.Limit)
	require("post.id", s.Post.ID)
	require("post.score", s.Post.Score)
	require("post.rating", s.Post.Rating)

	if len(s.Post.Ratings) == 0 {
		errs = append(errs, errors.New("post.ratings is empty"))
	}
	for order := range s.Order {
		if order < Newest || order > LeastLiked {
			errs = append(errs, fmt.Errorf("order has unknown entry %d", int(order)))
		}
	}
	if err := s.Post.Tags.validate(); err != nil {
		errs = append(errs, fmt.Errorf("post.tags: %w", err))
	}
	return errors.Join(errs...)
}

func (t *TagSchema) validate() error {
	if t.Separator != "" && utf8.RuneCountInString(t.Separator) != 1 {
		return fmt.Errorf("separator %q must be a single character", t.Separator)
	}
	switch t.Kind {
	case FlatLayout:
		if t.Key == "" {
			return errors.New("flat layout needs a key")
		}
	case CategorizedLayout:
		if len(t.Categories) == 0 {
			return errors.New("categorized layout needs at least one category")
		}
		seen := make(map[string]struct{}, len(t.Categories))
		for _, c := range t.Categories {
			if c == "" {
				return errors.New("categorized layout has an empty category")
			}
			if _, dup := seen[c]; dup {
				return fmt.Errorf("category %q is listed twice", c)
			}
			seen[c] = struct{}{}
		}
	default:
		return fmt.Errorf("unknown layout %q", t.Kind)
	}
	return nil
}

func (t *TagListSchema) validate() error {
	var errs []error
	for _, field := range []struct{ name, value string }{
		{"base_url", t.BaseURL},
		{"parameters.page", t.Parameters.Page},
		{"parameters.limit", t.Parameters.Limit},
		{"tag.id", t.Tag.ID},
		{"tag.name", t.Tag.Name},
		{"tag.count", t.Tag.Count},
	} {
		if field.value == "" {
			errs = append(errs, fmt.Errorf("%s is empty", field.name))
		}
	}
	return errors.Join(errs...)
}
