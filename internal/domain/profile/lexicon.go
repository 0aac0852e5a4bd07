// Package profile turns free-text chat turns into a structured developer
// profile through a small per-user state machine.
package profile

import "github.com/AVALorrie37/OpenRamp/internal/domain/model"

// defaultVocabulary is the allow-list of skill tokens recognised without any
// heuristic. Entries are already normalized.
var defaultVocabulary = []string{
	"python", "go", "rust", "java", "kotlin", "scala", "javascript", "typescript",
	"cpp", "c", "csharp", "fsharp", "dotnet", "ruby", "php", "swift", "objc", "dart",
	"elixir", "erlang", "haskell", "clojure", "lua", "perl", "r", "julia", "zig",
	"shell", "bash", "sql", "html", "css", "sass",
	"react", "vue", "angular", "svelte", "nextjs", "nodejs", "deno", "express",
	"django", "flask", "fastapi", "spring", "rails", "laravel", "gin", "echo",
	"tensorflow", "pytorch", "keras", "pandas", "numpy", "scikit_learn", "jupyter",
	"docker", "kubernetes", "helm", "terraform", "ansible", "linux", "nginx",
	"redis", "mysql", "postgresql", "mongodb", "sqlite", "kafka", "rabbitmq",
	"elasticsearch", "clickhouse", "graphql", "grpc", "protobuf", "webassembly",
	"android", "ios", "flutter", "electron", "git", "llvm", "opencv", "unity",
	"blockchain", "ethereum", "solidity", "llm", "nlp", "ml", "ai", "devops", "ci",
}

// preferenceLexicon maps synonyms to contribution types. ASCII phrases match
// whole words; CJK phrases match as substrings.
var preferenceLexicon = map[string]model.ContributionType{
	"修bug":           model.ContributionBugFix,
	"修复":             model.ContributionBugFix,
	"改bug":           model.ContributionBugFix,
	"排查":             model.ContributionBugFix,
	"bug":            model.ContributionBugFix,
	"bugs":           model.ContributionBugFix,
	"bug fix":        model.ContributionBugFix,
	"bugfix":         model.ContributionBugFix,
	"fixing":         model.ContributionBugFix,
	"新功能":            model.ContributionFeature,
	"功能开发":           model.ContributionFeature,
	"feature":        model.ContributionFeature,
	"features":       model.ContributionFeature,
	"文档":             model.ContributionDocs,
	"翻译":             model.ContributionDocs,
	"docs":           model.ContributionDocs,
	"documentation":  model.ContributionDocs,
	"社区":             model.ContributionCommunity,
	"答疑":             model.ContributionCommunity,
	"帮助新人":           model.ContributionCommunity,
	"community":      model.ContributionCommunity,
	"mentoring":      model.ContributionCommunity,
	"代码审查":           model.ContributionReview,
	"审查":             model.ContributionReview,
	"评审":             model.ContributionReview,
	"review":         model.ContributionReview,
	"reviews":        model.ContributionReview,
	"code review":    model.ContributionReview,
	"测试":             model.ContributionTest,
	"test":           model.ContributionTest,
	"tests":          model.ContributionTest,
	"testing":        model.ContributionTest,
	"unit tests":     model.ContributionTest,
	"write tests":    model.ContributionTest,
	"writing tests":  model.ContributionTest,
	"writing docs":   model.ContributionDocs,
	"new features":   model.ContributionFeature,
	"fix bugs":       model.ContributionBugFix,
	"answering":      model.ContributionCommunity,
	"triage":         model.ContributionCommunity,
	"help newcomers": model.ContributionCommunity,
}

// experienceLexicon maps self-descriptions to experience levels.
var experienceLexicon = map[string]model.Experience{
	"新手":           model.ExperienceBeginner,
	"初学":           model.ExperienceBeginner,
	"入门":           model.ExperienceBeginner,
	"小白":           model.ExperienceBeginner,
	"beginner":     model.ExperienceBeginner,
	"newbie":       model.ExperienceBeginner,
	"junior":       model.ExperienceBeginner,
	"有经验":          model.ExperienceIntermediate,
	"几年经验":         model.ExperienceIntermediate,
	"熟悉":           model.ExperienceIntermediate,
	"intermediate": model.ExperienceIntermediate,
	"资深":           model.ExperienceAdvanced,
	"专家":           model.ExperienceAdvanced,
	"精通":           model.ExperienceAdvanced,
	"senior":       model.ExperienceAdvanced,
	"expert":       model.ExperienceAdvanced,
	"advanced":     model.ExperienceAdvanced,
}

// ambiguousSkills are vocabulary entries that are also everyday English
// words or initialisms. They count as skills only next to skillCues, another
// skill, or in CJK text.
var ambiguousSkills = map[string]struct{}{
	"go": {}, "c": {}, "r": {}, "ci": {}, "ai": {}, "ml": {},
	"echo": {}, "express": {}, "spring": {}, "swift": {}, "unity": {},
}

// skillCues are ASCII words that mark a message as talking about skills.
var skillCues = []string{
	"know", "knows", "use", "uses", "using", "used", "write", "writes", "writing", "wrote",
	"code", "coding", "program", "programming", "develop", "developing", "developer",
	"experience", "experienced", "skilled", "familiar", "proficient", "fluent",
	"stack", "language", "languages", "skill", "skills",
}

// Intent phrases.
var (
	confirmPhrases  = []string{"确认", "没问题", "就这些", "confirm", "confirmed", "yes", "correct", "looks good", "lgtm"}
	discoverPhrases = []string{"帮我找", "找项目", "推荐", "搜索", "find me", "find some", "find projects", "find repos",
		"search for", "search projects", "recommend", "suggest", "show me"}
	resetPhrases    = []string{"重新开始", "重来", "清空", "start over", "reset", "restart"}
)
