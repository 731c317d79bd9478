// Package version holds the netgeo build metadata. Values are injected via
// ldflags; when they are not set (e.g. go install), runtime/debug.BuildInfo
// supplies the module version and VCS revision instead of the placeholders.
// The same values identify netgeo to NetGeo servers in the User-Agent.
package version
