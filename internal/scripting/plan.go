package scripting

import "github.com/jonathan/reel-studio/internal/types"

// longFormThreshold is the total length at which a script gets four scenes instead of three.
const longFormThreshold = 60

// SceneCount returns how many scenes a script of total seconds should have.
func SceneCount(total int) int {
	if total >= longFormThreshold {
		return types.MaxScenes
	}
	return types.MinScenes
}

// PlanDurations splits total seconds across SceneCount(total) scenes. Every scene gets
// total/n seconds and the last absorbs the remainder, so the plan always sums to total.
func PlanDurations(total int) []int {
	return split(total, SceneCount(total))
}

func split(total, n int) []int {
	if n <= 0 || total <= 0 {
		return nil
	}
	base := total / n
	plan := make([]int, n)
	for i := range n - 1 {
		plan[i] = base
	}
	plan[n-1] = total - base*(n-1)
	return plan
}
