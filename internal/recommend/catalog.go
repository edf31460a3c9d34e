package recommend

// Category groups rules for prioritisation and dependency derivation.
type Category string

const (
	CategoryDocumentation  Category = "Documentation"
	CategoryErrorHandling  Category = "Error Handling"
	CategoryStyle          Category = "Style"
	CategoryFramework      Category = "Framework"
	CategoryTesting        Category = "Testing"
	CategorySecurity       Category = "Security"
	CategoryArchitecture   Category = "Architecture"
	CategoryData           Category = "Data"
	CategoryInfrastructure Category = "Infrastructure"
)

// Rule is a catalog entry.
type Rule struct {
	Name            string
	Description     string
	Category        Category
	FilePatterns    []string
	ContentPatterns []string
}

// Baseline rules are recommended for every repository.
var Baseline = []string{"documentation-standards", "error-handling-patterns"}

// keywordTable maps a lower-case keyword to the rules it suggests. Order
// matters: it is the order recommendations are emitted in.
var keywordTable = []struct {
	Keyword string
	Rules   []string
}{
	{"python", []string{"python-code-style", "python-type-hints"}},
	{"fastapi", []string{"fastapi-best-practices", "pydantic-models"}},
	{"django", []string{"django-patterns"}},
	{"flask", []string{"flask-patterns"}},
	{"pytest", []string{"pytest-testing-patterns"}},
	{"typescript", []string{"typescript-strict-types"}},
	{"javascript", []string{"javascript-code-style"}},
	{"java", []string{"java-code-style"}},
	{"react", []string{"react-component-patterns", "react-hooks-guidelines"}},
	{"next.js", []string{"nextjs-routing-patterns"}},
	{"vue", []string{"vue-component-patterns"}},
	{"angular", []string{"angular-component-patterns"}},
	{"node", []string{"nodejs-best-practices"}},
	{"golang", []string{"go-idioms", "go-error-wrapping"}},
	{"rust", []string{"rust-idioms"}},
	{"api", []string{"api-design-guidelines"}},
	{"graphql", []string{"graphql-schema-design"}},
	{"cli", []string{"cli-design-patterns"}},
	{"test", []string{"testing-standards"}},
	{"auth", []string{"security-best-practices"}},
	{"security", []string{"security-best-practices"}},
	{"database", []string{"database-access-patterns"}},
	{"sql", []string{"database-access-patterns"}},
	{"docker", []string{"dockerfile-best-practices"}},
	{"kubernetes", []string{"kubernetes-manifests"}},
	{"terraform", []string{"terraform-conventions"}},
	{"github actions", []string{"ci-workflow-conventions"}},
	{"markdown", []string{"markdown-style"}},
}

var catalog = map[string]Rule{
	"documentation-standards": {
		Description:     "Keep docstrings, READMEs and comments current and consistent",
		Category:        CategoryDocumentation,
		FilePatterns:    []string{"*.md"},
		ContentPatterns: []string{"^#", `"""`},
	},
	"error-handling-patterns": {
		Description: "Handle errors explicitly and never swallow them silently",
		Category:    CategoryErrorHandling,
	},
	"python-code-style": {
		Description:     "Follow PEP 8 naming and layout conventions",
		Category:        CategoryStyle,
		FilePatterns:    []string{"*.py"},
		ContentPatterns: []string{"def ", "class "},
	},
	"python-type-hints": {
		Description:     "Annotate public functions with type hints",
		Category:        CategoryStyle,
		FilePatterns:    []string{"*.py", "*.pyi"},
		ContentPatterns: []string{"def "},
	},
	"fastapi-best-practices": {
		Description:     "Structure FastAPI routers, dependencies and response models",
		Category:        CategoryFramework,
		FilePatterns:    []string{"*.py"},
		ContentPatterns: []string{"FastAPI", "APIRouter", "@app\\."},
	},
	"pydantic-models": {
		Description:     "Validate request and settings data with Pydantic models",
		Category:        CategoryData,
		FilePatterns:    []string{"*.py"},
		ContentPatterns: []string{"BaseModel"},
	},
	"django-patterns": {
		Description:     "Keep Django views thin and business logic in models and services",
		Category:        CategoryFramework,
		FilePatterns:    []string{"*.py"},
		ContentPatterns: []string{"django"},
	},
	"flask-patterns": {
		Description:     "Use blueprints and application factories in Flask apps",
		Category:        CategoryFramework,
		FilePatterns:    []string{"*.py"},
		ContentPatterns: []string{"Flask", "Blueprint"},
	},
	"pytest-testing-patterns": {
		Description:     "Write focused pytest tests with fixtures and parametrize",
		Category:        CategoryTesting,
		FilePatterns:    []string{"test_*.py", "*_test.py"},
		ContentPatterns: []string{"def test_", "@pytest"},
	},
	"typescript-strict-types": {
		Description:     "Prefer precise types and avoid any",
		Category:        CategoryStyle,
		FilePatterns:    []string{"*.ts", "*.tsx"},
		ContentPatterns: []string{": any", "as any"},
	},
	"javascript-code-style": {
		Description:     "Use modern ES syntax and consistent module layout",
		Category:        CategoryStyle,
		FilePatterns:    []string{"*.js", "*.jsx", "*.mjs"},
		ContentPatterns: []string{"function ", "=> "},
	},
	"java-code-style": {
		Description:     "Follow standard Java naming and class layout",
		Category:        CategoryStyle,
		FilePatterns:    []string{"*.java"},
		ContentPatterns: []string{"class ", "interface "},
	},
	"react-component-patterns": {
		Description:     "Build small function components with clear props",
		Category:        CategoryFramework,
		FilePatterns:    []string{"*.jsx", "*.tsx"},
		ContentPatterns: []string{"React", "export default function"},
	},
	"react-hooks-guidelines": {
		Description:     "Follow the rules of hooks and keep effects minimal",
		Category:        CategoryFramework,
		FilePatterns:    []string{"*.jsx", "*.tsx"},
		ContentPatterns: []string{"useEffect", "useState"},
	},
	"nextjs-routing-patterns": {
		Description:     "Organise Next.js routes, layouts and data fetching",
		Category:        CategoryFramework,
		FilePatterns:    []string{"*.tsx", "*.jsx"},
		ContentPatterns: []string{"next/"},
	},
	"vue-component-patterns": {
		Description:  "Use single-file components with typed props",
		Category:     CategoryFramework,
		FilePatterns: []string{"*.vue"},
	},
	"angular-component-patterns": {
		Description:     "Keep Angular components presentational and move logic to services",
		Category:        CategoryFramework,
		FilePatterns:    []string{"*.component.ts"},
		ContentPatterns: []string{"@Component"},
	},
	"nodejs-best-practices": {
		Description:     "Handle async errors and configuration in Node.js services",
		Category:        CategoryFramework,
		FilePatterns:    []string{"*.js", "*.ts"},
		ContentPatterns: []string{"require\\(", "process\\.env"},
	},
	"go-idioms": {
		Description:     "Write idiomatic Go: small interfaces and explicit errors",
		Category:        CategoryStyle,
		FilePatterns:    []string{"*.go"},
		ContentPatterns: []string{"func "},
	},
	"go-error-wrapping": {
		Description:     "Wrap Go errors with context using %w",
		Category:        CategoryErrorHandling,
		FilePatterns:    []string{"*.go"},
		ContentPatterns: []string{"err != nil"},
	},
	"rust-idioms": {
		Description:     "Prefer Result propagation and borrowing over cloning",
		Category:        CategoryStyle,
		FilePatterns:    []string{"*.rs"},
		ContentPatterns: []string{"fn ", "unwrap\\(\\)"},
	},
	"api-design-guidelines": {
		Description: "Design consistent, versioned HTTP APIs",
		Category:    CategoryArchitecture,
	},
	"graphql-schema-design": {
		Description:  "Keep GraphQL schemas cohesive and paginate lists",
		Category:     CategoryArchitecture,
		FilePatterns: []string{"*.graphql", "*.gql"},
	},
	"cli-design-patterns": {
		Description: "Give CLIs consistent flags, help text and exit codes",
		Category:    CategoryArchitecture,
	},
	"testing-standards": {
		Description: "Cover behaviour with fast, isolated tests",
		Category:    CategoryTesting,
	},
	"security-best-practices": {
		Description:     "Never hard-code secrets and validate all input",
		Category:        CategorySecurity,
		ContentPatterns: []string{"password", "secret", "token"},
	},
	"database-access-patterns": {
		Description:     "Parameterise queries and keep transactions short",
		Category:        CategoryData,
		ContentPatterns: []string{"SELECT ", "INSERT ", "UPDATE "},
	},
	"dockerfile-best-practices": {
		Description:     "Use small base images, pinned versions and multi-stage builds",
		Category:        CategoryInfrastructure,
		FilePatterns:    []string{"Dockerfile", "*.dockerfile"},
		ContentPatterns: []string{"FROM "},
	},
	"kubernetes-manifests": {
		Description:     "Set resource limits, probes and labels on every workload",
		Category:        CategoryInfrastructure,
		FilePatterns:    []string{"*.yaml", "*.yml"},
		ContentPatterns: []string{"apiVersion:"},
	},
	"terraform-conventions": {
		Description:  "Keep Terraform modules small with typed variables",
		Category:     CategoryInfrastructure,
		FilePatterns: []string{"*.tf"},
	},
	"ci-workflow-conventions": {
		Description:     "Pin action versions and cache dependencies in CI workflows",
		Category:        CategoryInfrastructure,
		FilePatterns:    []string{"*.yml"},
		ContentPatterns: []string{"uses:"},
	},
	"markdown-style": {
		Description:  "Use consistent heading levels and fenced code blocks",
		Category:     CategoryDocumentation,
		FilePatterns: []string{"*.md"},
	},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Rule, bool) {
	r, ok := catalog[name]
	if ok {
		r.Name = name
	}
	return r, ok
}
