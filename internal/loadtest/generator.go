package loadtest

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// skillPool lists the skills sessions are drawn from.
var skillPool = []string{
	"Python", "Go", "Rust", "JavaScript", "TypeScript", "Java",
	"Kubernetes", "Docker", "React", "Vue", "PostgreSQL", "gRPC",
}

const (
	confirmMessage  = "确认技能"
	discoverMessage = "帮我推荐一些项目"
	maxSkillsPerRun = 3
)

// generateFlows builds n scripted sessions. The same seed yields the same
// skills; user ids are always fresh.
func generateFlows(n int, seed uint64) []Flow {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	flows := make([]Flow, n)
	for i := range flows {
		k := 1 + rng.IntN(maxSkillsPerRun)
		picked := make([]string, 0, k)
		for _, j := range rng.Perm(len(skillPool))[:k] {
			picked = append(picked, skillPool[j])
		}
		flows[i] = Flow{
			UserID: "load-" + uuid.NewString(),
			Skills: picked,
			Messages: []string{
				fmt.Sprintf("我擅长%s开发", strings.Join(picked, "和")),
				confirmMessage,
				discoverMessage,
			},
		}
	}
	return flows
}
