package events

// Lifecycle events broadcast by the project, in the order they fire.
const (
	ConfigureProject = "configure.project"
	ConfigureTheme   = "configure.theme"
	ConfigurePlugins = "configure.plugins"
	ConfigureAssets  = "configure.assets"

	CompileStart  = "compile.start"
	CompileFinish = "compile.finish"

	OutputStart        = "output.start"
	OutputTemplate     = "output.template"
	OutputTemplatePage = "output.template.page"
	OutputFinish       = "output.finish"
)

// ContextEntered is broadcast once per process when the named config scope
// is first pushed.
func ContextEntered(name string) string { return "context." + name }
