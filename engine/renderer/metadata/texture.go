package metadata

/**
 * @brief Decoded texel data ready for upload. Subresources are ordered
 * slice-major: every mip of slice 0, then every mip of slice 1, and so on.
 */
type TextureData struct {
	Name      string
	Width     uint32
	Height    uint32
	ArraySize uint16
	MipLevels uint16
	Format    Format
	IsCube    bool
	// Compressed data is forwarded verbatim to the allocator.
	Compressed   bool
	Subresources [][]byte
}

// Subresource returns the bytes of one mip of one slice.
func (t *TextureData) Subresource(slice, mip int) []byte {
	i := slice*int(t.MipLevels) + mip
	if i < 0 || i >= len(t.Subresources) {
		return nil
	}
	return t.Subresources[i]
}
