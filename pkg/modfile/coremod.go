// SPDX-License-Identifier: MPL-2.0

package modfile

import (
	"fmt"
	"io"
)

// CoreModFile is a coremod script packaged in an archive.
type CoreModFile struct {
	name string
	path string
	file *ModFile
}

// Name returns the coremod name declared in coremods.json.
func (c *CoreModFile) Name() string { return c.name }

// ReadCoreMod opens the script.
func (c *CoreModFile) ReadCoreMod() (io.ReadCloser, error) {
	return c.file.jar.Open(c.path)
}

// AdditionalFile opens another resource of the same archive, relative to its root.
func (c *CoreModFile) AdditionalFile(name string) (io.ReadCloser, error) {
	p, err := c.file.FindResource(name)
	if err != nil {
		return nil, err
	}
	return c.file.jar.Open(p)
}

// OwnerID is the id of the first mod declared by the archive.
func (c *CoreModFile) OwnerID() string {
	mods := c.file.ModInfos()
	if len(mods) == 0 {
		return ""
	}
	return mods[0].ModID
}

// DebugSource is the script path inside the archive.
func (c *CoreModFile) DebugSource() string { return c.path }

// String implements fmt.Stringer.
func (c *CoreModFile) String() string {
	return fmt.Sprintf("{Name: %s, Owner: %s @ %s}", c.name, c.OwnerID(), c.DebugSource())
}
