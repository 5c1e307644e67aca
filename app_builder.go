package sightline

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: NewApp()}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

// Build installs every module in registration order and returns the app,
// ready to Step or Run.
func (b *AppBuilder) Build() *App {
	b.app.UseModules(b.modules...)
	b.app.build()
	return b.app
}
