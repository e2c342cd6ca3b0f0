package schema

import (
	"math"
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

const (
	// MinTemperature and MaxTemperature bound the sampling temperature
	MinTemperature = 0.0
	MaxTemperature = 2.0

	maxNameLength = 64
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
	toolPattern    = regexp.MustCompile(`^[A-Za-z0-9_.*-]+$`)
	modelIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:@-]*(?:/[A-Za-z0-9._:@-]+)*$`)
	schemePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
)

// KnownProviders lists the provider prefixes accepted in model identifiers
var KnownProviders = []string{
	"anthropic",
	"openai",
	"google",
	"openrouter",
	"ollama",
	"xai",
	"mistral",
	"groq",
	"deepseek",
	"azure",
	"bedrock",
	"github-copilot",
	"opencode",
}

// ModelAliases are provider-neutral family names accepted as model identifiers
var ModelAliases = []string{"sonnet", "opus", "haiku"}

func checkName(name string) error {
	switch {
	case name == "":
		return errors.New("is required")
	case len(name) > maxNameLength:
		return errors.Errorf("must be at most %d characters", maxNameLength)
	case !slugPattern.MatchString(name):
		return errors.Errorf("%q is not a slug (lowercase letters, digits, '-' and '_')", name)
	}
	return nil
}

func checkVersion(v string) error {
	if _, err := semver.StrictNewVersion(v); err != nil {
		return errors.Errorf("%q is not a semantic version", v)
	}
	return nil
}

func checkMode(m AgentMode) error {
	switch m {
	case ModePrimary, ModeSubagent, ModeAll:
		return nil
	}
	return errors.Errorf("unknown mode %q (want primary, subagent or all)", m)
}

// ParseModel splits a model identifier into provider and model id. Aliases
// have an empty provider.
func ParseModel(id string) (provider, model string, err error) {
	for _, alias := range ModelAliases {
		if id == alias {
			return "", id, nil
		}
	}

	provider, model, ok := strings.Cut(id, "/")
	if !ok {
		return "", "", errors.Errorf("%q is not a recognized model (want <provider>/<model> or one of %s)",
			id, strings.Join(ModelAliases, ", "))
	}

	known := false
	for _, p := range KnownProviders {
		if p == provider {
			known = true
			break
		}
	}
	if !known {
		return "", "", errors.Errorf("unknown model provider %q", provider)
	}
	if model == "" || !modelIDPattern.MatchString(model) {
		return "", "", errors.Errorf("%q is not a valid model id", model)
	}
	return provider, model, nil
}

func checkModel(id string) error {
	_, _, err := ParseModel(id)
	return err
}

func checkTemperature(t float64) error {
	if math.IsNaN(t) || t < MinTemperature || t > MaxTemperature {
		return errors.Errorf("%v is out of range [%v, %v]", t, MinTemperature, MaxTemperature)
	}
	return nil
}

func checkRuleKind(k RuleKind) error {
	switch k {
	case RuleAllow, RuleDeny, RuleAsk:
		return nil
	}
	return errors.Errorf("unknown permission kind %q (want allow, deny or ask)", k)
}

func checkToolName(name string) error {
	if !toolPattern.MatchString(name) {
		return errors.Errorf("%q is not a valid tool name", name)
	}
	return nil
}

func checkPattern(p string) error {
	if p == "" {
		return errors.New("pattern must not be empty")
	}
	if _, err := glob.Compile(p); err != nil {
		return errors.Errorf("pattern %q does not compile: %v", p, err)
	}
	return nil
}

func checkHookEvent(e HookEvent) error {
	switch e {
	case HookBeforeToolCall, HookAfterToolCall, HookUserMessageSend,
		HookAgentStop, HookSessionStart, HookSessionEnd:
		return nil
	}
	return errors.Errorf("unknown hook event %q", e)
}

func checkDependencyKind(k DependencyKind) error {
	switch k {
	case DependencyAgent, DependencyContext, DependencySkill, DependencyTool:
		return nil
	}
	return errors.Errorf("unknown dependency kind %q", k)
}

// checkRelativePath accepts slash separated paths that stay inside the
// directory they are resolved against. Whether the target exists is the
// caller's concern.
func checkRelativePath(p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return errors.New("path must not be empty")
	case strings.ContainsRune(p, 0):
		return errors.New("path must not contain NUL")
	case schemePattern.MatchString(p):
		return errors.Errorf("%q is a URL, not a relative path", p)
	case strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) || hasDriveLetter(p):
		return errors.Errorf("%q is absolute", p)
	}

	clean := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.Errorf("%q escapes its base directory", p)
	}
	return nil
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

func checkSkillName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("is required")
	}
	if strings.ContainsAny(name, " \t\n") {
		return errors.Errorf("%q must not contain whitespace", name)
	}
	return nil
}

// ValidName reports why name is not an acceptable agent or adapter name
func ValidName(name string) error {
	return checkName(name)
}
