package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabel(t *testing.T) {
	label := ParseLabel("//src/core:core")
	assert.Equal(t, BuildLabel{PackageName: "src/core", Name: "core"}, label.Unflavoured())
	assert.Empty(t, label.Flavours())
}

func TestParseCellQualifiedLabel(t *testing.T) {
	label := ParseLabel("xplat//path/to:target")
	assert.Equal(t, BuildLabel{Cell: "xplat", PackageName: "path/to", Name: "target"}, label.Unflavoured())
}

func TestParseFlavouredLabel(t *testing.T) {
	label := ParseLabel("//src/core:core#shared#py3")
	assert.Equal(t, BuildLabel{PackageName: "src/core", Name: "core"}, label.Unflavoured())
	assert.Equal(t, []string{"py3", "shared"}, label.Flavours())
}

func TestParseRootPackageLabel(t *testing.T) {
	label := ParseLabel("//:root")
	assert.Equal(t, BuildLabel{PackageName: "", Name: "root"}, label.Unflavoured())
}

func TestParseInvalidLabels(t *testing.T) {
	for _, s := range []string{"", "src/core", ":core", "//src/core", "//src/core:", "//src core:core"} {
		_, err := TryParseLabel(s)
		assert.Error(t, err, "Expected %s to fail to parse", s)
	}
}

func TestFlavoursAreCanonicalised(t *testing.T) {
	label := NewBuildLabel("", "src/core", "core")
	a := NewFlavouredLabel(label, "shared", "py3")
	b := NewFlavouredLabel(label, "py3", "shared", "py3")
	assert.Equal(t, a, b)
	assert.Equal(t, "//src/core:core#py3#shared", a.String())
}

func TestFlavouredLabelsShareUnflavouredParent(t *testing.T) {
	label := NewBuildLabel("", "src/core", "core")
	a := NewFlavouredLabel(label, "shared")
	b := NewFlavouredLabel(label, "static")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a.Unflavoured(), b.Unflavoured())
}

func TestConfiguredLabel(t *testing.T) {
	label := NewFlavouredLabel(NewBuildLabel("", "src/core", "core"), "shared")
	configured := label.Configure("linux_amd64")
	assert.Equal(t, label, configured.Unconfigured())
	assert.Equal(t, label.Unflavoured(), configured.Unflavoured())
	assert.Equal(t, "//src/core:core#shared (linux_amd64)", configured.String())
}

func TestTryNewBuildLabel(t *testing.T) {
	_, err := TryNewBuildLabel("", "src/core", "core")
	assert.NoError(t, err)
	_, err = TryNewBuildLabel("", "src core", "core")
	assert.Error(t, err)
	_, err = TryNewBuildLabel("", "src/core", "")
	assert.Error(t, err)
	_, err = TryNewBuildLabel("a cell", "src/core", "core")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, "//src/core:core", NewBuildLabel("", "src/core", "core").String())
	assert.Equal(t, "xplat//src/core:core", NewBuildLabel("xplat", "src/core", "core").String())
}
