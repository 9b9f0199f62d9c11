package accuracy

import (
	"fmt"
	"math"
)

// Format renders a metric value as a fixed three-decimal percentage, e.g.
// Format(0.76543) == "76.543%". Non-finite input formats as "n/a". It is
// deterministic and side-effect free, so it can format any externally
// supplied value, not only a library's own last metric.
func Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f%%", v*100)
}
