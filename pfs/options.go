package pfs

// DefaultBlockSize is the only block size spec'd for current use.
const DefaultBlockSize = 65536

// Properties configures a Builder. Construct it through NewBuilder's
// functional options rather than by hand so defaulting and validation always
// run.
type Properties struct {
	Root *Directory

	BlockSize uint64

	Sign    bool
	Encrypt bool

	// EKPFS is 32 bytes of key material, required whenever Sign or Encrypt
	// is set.
	EKPFS []byte

	// Seed is 16 bytes, zero-filled is acceptable for fake-signed images.
	Seed [16]byte

	// FileTime is seconds since the Unix epoch, applied to every inode's
	// timestamp.
	FileTime int64

	Logger Logger
}

// Option configures a Properties record. Options are applied in order after
// defaults and before validation.
type Option func(*Properties) error

// WithBlockSize overrides the default 65536-byte block size.
func WithBlockSize(size uint64) Option {
	return func(p *Properties) error {
		if size == 0 {
			return newBuildError(ConfigMismatch, "WithBlockSize", errZeroBlockSize)
		}
		p.BlockSize = size
		return nil
	}
}

// WithSign enables the signed ("outer") profile: HMAC-SHA256 signing queue,
// larger inode encoding, readonly cleared on internal inodes.
func WithSign(ekpfs []byte) Option {
	return func(p *Properties) error {
		p.Sign = true
		p.EKPFS = ekpfs
		return nil
	}
}

// WithEncrypt enables XTS-AES-128 sector encryption of the finished image.
func WithEncrypt(ekpfs []byte) Option {
	return func(p *Properties) error {
		p.Encrypt = true
		p.EKPFS = ekpfs
		return nil
	}
}

// WithSeed sets the 16-byte seed used to derive the sign/encrypt keys.
func WithSeed(seed [16]byte) Option {
	return func(p *Properties) error {
		p.Seed = seed
		return nil
	}
}

// WithFileTime sets the Unix-epoch timestamp applied to every inode.
func WithFileTime(sec int64) Option {
	return func(p *Properties) error {
		p.FileTime = sec
		return nil
	}
}

// WithLogger overrides the default logrus.StandardLogger() phase logger.
func WithLogger(l Logger) Option {
	return func(p *Properties) error {
		p.Logger = l
		return nil
	}
}

func newProperties(root *Directory, opts ...Option) (*Properties, error) {
	p := &Properties{
		Root:      root,
		BlockSize: DefaultBlockSize,
		Logger:    defaultLogger(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Properties) validate() error {
	if p.Root == nil {
		return newBuildError(ConfigMismatch, "Properties.validate", errNoRoot)
	}
	if (p.Sign || p.Encrypt) && len(p.EKPFS) != 32 {
		return newBuildError(ConfigMismatch, "Properties.validate", errBadEKPFS)
	}
	return nil
}
