package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/diagramgen/pkg/scene"
)

func TestCheck_LensEquationTolerance_Table(t *testing.T) {
	cases := []struct {
		name           string
		imageDistance  float64
		tolerance      Tolerance
		expectPass     bool
		expectedResult int
	}{
		{"exact fit passes", 15.0, DefaultTolerance, true, 1},
		{"small drift within tolerance passes", 17.0, DefaultTolerance, true, 1},
		{"large drift fails", 100.0, DefaultTolerance, false, 1},
		{"tight tolerance rejects small drift", 15.2, Tolerance{LensEquationEpsilon: 0.0001, AtomBalanceEpsilon: DefaultTolerance.AtomBalanceEpsilon}, false, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &scene.Scene{
				Domain: "optics",
				Objects: []*scene.Object{
					{ID: "l1", PrimitiveType: "lens", Properties: map[string]interface{}{
						"focal_length": 10.0, "object_distance": 30.0, "image_distance": tc.imageDistance,
					}},
				},
			}
			results := Check(s, tc.tolerance)
			require.Len(t, results, tc.expectedResult)
			assert.Equal(t, tc.expectPass, results[0].Passed, fmt.Sprintf("case %q", tc.name))
		})
	}
}
