package storer

import (
	gitconfig "github.com/go-git/go-git-checkout/config"
)

// Config implements storer.ConfigStore.
func (d *DotGit) Config() (*gitconfig.Config, error) {
	b, err := d.readConfigBytes()
	if err != nil {
		return gitconfig.NewConfig(), nil
	}

	return gitconfig.Unmarshal(b)
}

// SetConfig implements storer.ConfigStore.
func (d *DotGit) SetConfig(c *gitconfig.Config) error {
	return d.writeConfigBytes(c.Marshal())
}
