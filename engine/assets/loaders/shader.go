package loaders

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// dxbcMagic opens every compiled shader object, DXIL included.
var dxbcMagic = []byte("DXBC")

type ShaderLoader struct{}

// Load reads compiled shader bytecode. Files that are not shader containers
// are rejected rather than handed to pipeline creation.
func (ShaderLoader) Load(path string) (*metadata.ShaderBlob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, dxbcMagic) {
		return nil, fmt.Errorf("%s is not compiled shader bytecode", path)
	}
	return &metadata.ShaderBlob{
		FullPath: path,
		Bytecode: data,
	}, nil
}
