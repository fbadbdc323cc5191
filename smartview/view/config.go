// Package view executes smart view configurations over task collections:
// filter, stable sort, paginate, then bucket into ordered groups.
package view

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/operators"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Config is a smart view: a persisted, named combination of filters,
// grouping and sort order. Configurations reaching Execute are assumed
// pre-validated; Validate is what the view-management layer runs before
// persisting one.
type Config struct {
	Filters          filter.Group
	GroupBy          string    // GroupBy is a field id, empty for a flat list.
	SecondaryGroupBy string    // SecondaryGroupBy must differ from GroupBy when set.
	SortBy           string    // SortBy is a field id, empty keeps input order.
	SortOrder        SortOrder // SortOrder defaults to ascending when empty.
}

// Validate checks a view configuration and reports every violation at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.SortOrder != "" && c.SortOrder != SortAsc && c.SortOrder != SortDesc {
		result = multierror.Append(result, fmt.Errorf("sort order %q is not one of asc, desc", c.SortOrder))
	}
	if c.SecondaryGroupBy != "" && c.SecondaryGroupBy == c.GroupBy {
		result = multierror.Append(result, fmt.Errorf("secondary grouping %q duplicates the primary grouping", c.SecondaryGroupBy))
	}
	for _, id := range []string{c.GroupBy, c.SecondaryGroupBy, c.SortBy} {
		if id == "" {
			continue
		}
		if _, ok := fields.Lookup(id); !ok {
			result = multierror.Append(result, fmt.Errorf("unknown field %q", id))
		}
	}

	v := &validateVisitor{}
	if err := c.Filters.Accept(v); err != nil {
		result = multierror.Append(result, err)
	}
	result = multierror.Append(result, v.violations...)

	return result.ErrorOrNil()
}

// validateVisitor walks a filter tree checking operator-per-field-type
// legality, collecting every violation instead of stopping at the first.
type validateVisitor struct {
	violations []error
}

func (v *validateVisitor) VisitCondition(c filter.Condition) error {
	if !operators.SupportedBy(fields.TypeOf(c.Field), c.Operator) {
		v.violations = append(v.violations,
			fmt.Errorf("operator %q is not legal for field %q", c.Operator, c.Field))
	}
	return nil
}

func (v *validateVisitor) VisitGroup(g filter.Group) error {
	if g.Operator != filter.BoolAnd && g.Operator != filter.BoolOr && g.Operator != "" {
		v.violations = append(v.violations,
			fmt.Errorf("group operator %q is not one of and, or", g.Operator))
	}
	for _, child := range g.Conditions {
		if child == nil {
			v.violations = append(v.violations, filter.ErrMalformedNode)
			continue
		}
		if err := child.Accept(v); err != nil {
			return err
		}
	}
	return nil
}
