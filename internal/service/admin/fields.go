package admin

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

type coerceFunc func(any) (any, error)

// editable lists, per table, the stored fields the back-office may change.
// Identifiers, transaction keys and note numbers are never editable.
var editable = map[models.Table]map[string]coerceFunc{
	models.TableIntake: {
		"client_name":  nonEmptyString,
		"product_type": productType,
		"quantity_kg":  nonNegativeNumber,
		"phone":        phone,
	},
	models.TableGrading: {
		"client_name":   nonEmptyString,
		"date":          date,
		"size_category": sizeCategory,
		"boxes":         wholeNumber,
		"quantity_kg":   nonNegativeNumber,
		"finalized":     boolean,
	},
	models.TableSales: {
		"client_name": nonEmptyString,
		"date":        date,
		"address":     optionalString,
		"city":        optionalString,
		"plates":      optionalString,
		"total":       nonNegativeNumber,
	},
}

func nonEmptyString(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errors.New("must be text")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("must not be empty")
	}
	return s, nil
}

func optionalString(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errors.New("must be text")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func phone(v any) (any, error) {
	s, err := optionalString(v)
	if err != nil || s == nil {
		return s, err
	}
	if str := s.(string); len(str) != 10 || strings.Trim(str, "0123456789") != "" {
		return nil, errors.New("must have exactly 10 digits")
	}
	return s, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, errors.New("must be a number")
	}
}

func nonNegativeNumber(v any) (any, error) {
	n, err := number(v)
	if err != nil {
		return nil, err
	}
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, errors.New("must not be negative")
	}
	return n, nil
}

func wholeNumber(v any) (any, error) {
	n, err := number(v)
	if err != nil {
		return nil, err
	}
	if n < 0 || n != math.Trunc(n) {
		return nil, errors.New("must be a whole number")
	}
	return int64(n), nil
}

func boolean(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, errors.New("must be true or false")
	}
	return b, nil
}

func date(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errors.New("must be a date")
	}
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return nil, fmt.Errorf("must look like %s", models.DateLayout)
	}
	return s, nil
}

func productType(v any) (any, error) {
	s, _ := v.(string)
	t, ok := models.ParseProductType(s)
	if !ok {
		return nil, fmt.Errorf("unknown product type %q", s)
	}
	return string(t), nil
}

func sizeCategory(v any) (any, error) {
	s, _ := v.(string)
	c, ok := models.ParseSizeCategory(s)
	if !ok {
		return nil, fmt.Errorf("unknown size category %q", s)
	}
	return string(c), nil
}
