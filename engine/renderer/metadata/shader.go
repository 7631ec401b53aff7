package metadata

/** @brief Compiled shader bytecode loaded from disk. */
type ShaderBlob struct {
	Name     string
	FullPath string
	Bytecode []byte
}

// Size returns the bytecode length.
func (s *ShaderBlob) Size() int {
	if s == nil {
		return 0
	}
	return len(s.Bytecode)
}
