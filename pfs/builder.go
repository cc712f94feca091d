package pfs

// Builder synthesizes a PFS disk image from an in-memory filesystem tree.
// Create one with NewBuilder, then call WriteImage.
type Builder struct {
	props *Properties
	plan  *plan
}

// NewBuilder validates root and opts and plans the full block layout up
// front, so CalculatePfsSize is available before any bytes are written.
func NewBuilder(root *Directory, opts ...Option) (*Builder, error) {
	props, err := newProperties(root, opts...)
	if err != nil {
		return nil, err
	}

	logPhase(props.Logger, "setting up root structure")
	pl, err := planBuild(props)
	if err != nil {
		return nil, err
	}

	return &Builder{props: props, plan: pl}, nil
}

// CalculatePfsSize returns the exact byte length WriteImage will produce.
func (b *Builder) CalculatePfsSize() int64 {
	return int64(b.plan.ndblock) * int64(b.props.BlockSize)
}

// WriteImage runs the writer, signer, and encryptor phases against sink in
// order, matching spec.md §2's data flow.
func (b *Builder) WriteImage(sink Sink) error {
	if err := writeImage(b.plan, sink, b.props.Logger); err != nil {
		return err
	}
	if err := signImage(b.plan, sink, b.props.Logger); err != nil {
		return err
	}
	if err := encryptImage(b.plan, sink, b.props.Logger); err != nil {
		return err
	}
	return nil
}
