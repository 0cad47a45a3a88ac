package config

// View is a read-only, flattened copy of the config as seen from one scope.
// Rendering code receives a View so it cannot depend on later changes to
// the stack.
type View struct {
	name   string
	values map[string]any
}

// NewView builds a view over values, mostly for tests.
func NewView(name string, values map[string]any) View {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return View{name: name, values: cp}
}

// Name is the scope the view was taken in.
func (v View) Name() string { return v.name }

func (v View) Get(key string) any {
	return v.values[key]
}

// Has reports whether key is set in any visible scope.
func (v View) Has(key string) bool {
	_, ok := v.values[key]
	return ok
}

func (v View) String(key string) string      { return asString(v.values[key]) }
func (v View) Bool(key string, def bool) bool { return asBool(v.values[key], def) }
func (v View) Int(key string, def int) int    { return asInt(v.values[key], def) }
func (v View) BaseURL() string                { return baseURL(v.String("host"), v.String("scheme")) }
