package postal

// Core is a handle on libpostal's core subsystem (normalization and
// expansion). It must be closed.
type Core struct {
	ref *ref
}

// Setup initializes libpostal with its compiled-in data directory.
func Setup() (*Core, error) {
	return SetupDataDir("")
}

// SetupDataDir initializes libpostal from datadir. See the package
// documentation for what happens if core is already initialized.
func SetupDataDir(datadir string) (*Core, error) {
	r, err := acquireRef(SubsystemCore, datadir)
	if err != nil {
		return nil, err
	}
	return &Core{ref: r}, nil
}

// WithCore runs fn with a Core handle that is closed on every exit path,
// panics included.
func WithCore(datadir string, fn func(*Core) error) error {
	core, err := SetupDataDir(datadir)
	if err != nil {
		return err
	}
	defer core.Close()
	return fn(core)
}

// Close releases the handle. It is safe to call more than once.
func (c *Core) Close() error {
	c.ref.release()
	return nil
}

// DataDir is the directory currently recorded for the core subsystem.
func (c *Core) DataDir() string { return c.ref.g.dir() }

// DefaultNormalizeOptions returns libpostal's default expansion options.
func (c *Core) DefaultNormalizeOptions() NormalizeOptions {
	return lib.defaultNormalizeOptions()
}

// ExpandAddress returns the normalized variants of input. The result may
// be empty.
func (c *Core) ExpandAddress(input string, opts NormalizeOptions) ([]string, error) {
	return c.expand(input, opts, false)
}

// ExpandAddressRoot is ExpandAddress with libpostal's root expansion,
// which drops affixes such as street types.
func (c *Core) ExpandAddressRoot(input string, opts NormalizeOptions) ([]string, error) {
	return c.expand(input, opts, true)
}

func (c *Core) expand(input string, opts NormalizeOptions, root bool) ([]string, error) {
	if err := c.ref.enter(); err != nil {
		return nil, err
	}
	defer c.ref.leave()
	if err := checkString("input", input); err != nil {
		return nil, err
	}
	if err := checkStrings("languages", opts.Languages); err != nil {
		return nil, err
	}
	return lib.expandAddress(input, opts, root), nil
}

// NormalizeString applies string-level normalization to input.
func (c *Core) NormalizeString(input string, opts StringOptions, languages ...string) (string, error) {
	if err := c.ref.enter(); err != nil {
		return "", err
	}
	defer c.ref.leave()
	if err := checkString("input", input); err != nil {
		return "", err
	}
	if err := checkStrings("languages", languages); err != nil {
		return "", err
	}
	return lib.normalizeString(input, opts, languages), nil
}

// Tokenize splits input with libpostal's tokenizer. Whitespace tokens are
// kept when whitespace is true.
func (c *Core) Tokenize(input string, whitespace bool) ([]Token, error) {
	if err := c.ref.enter(); err != nil {
		return nil, err
	}
	defer c.ref.leave()
	if err := checkString("input", input); err != nil {
		return nil, err
	}
	return lib.tokenize(input, whitespace), nil
}

func (c *Core) NormalizedTokens(input string, sopts StringOptions, topts TokenOptions, whitespace bool, languages ...string) ([]NormalizedToken, error) {
	if err := c.ref.enter(); err != nil {
		return nil, err
	}
	defer c.ref.leave()
	if err := checkString("input", input); err != nil {
		return nil, err
	}
	if err := checkStrings("languages", languages); err != nil {
		return nil, err
	}
	return lib.normalizedTokens(input, sopts, topts, whitespace, languages), nil
}

// SetupParser initializes the address parser with the default data
// directory.
func (c *Core) SetupParser() (*Parser, error) {
	return c.SetupParserDataDir("")
}

// SetupParserDataDir initializes the address parser from datadir. The
// returned Parser holds its own core reference.
func (c *Core) SetupParserDataDir(datadir string) (*Parser, error) {
	core, sub, err := c.dependent(SubsystemParser, datadir)
	if err != nil {
		return nil, err
	}
	return &Parser{core: core, ref: sub}, nil
}

// SetupLanguageClassifier initializes the language classifier with the
// default data directory.
func (c *Core) SetupLanguageClassifier() (*LanguageClassifier, error) {
	return c.SetupLanguageClassifierDataDir("")
}

func (c *Core) SetupLanguageClassifierDataDir(datadir string) (*LanguageClassifier, error) {
	core, sub, err := c.dependent(SubsystemLanguageClassifier, datadir)
	if err != nil {
		return nil, err
	}
	return &LanguageClassifier{core: core, ref: sub}, nil
}

// dependent acquires a core reference and then kind. If kind fails the
// core reference is released again.
func (c *Core) dependent(kind Subsystem, datadir string) (*ref, *ref, error) {
	if err := c.ref.live(); err != nil {
		return nil, nil, err
	}
	core, err := acquireRef(SubsystemCore, "")
	if err != nil {
		return nil, nil, err
	}
	sub, err := acquireRef(kind, datadir)
	if err != nil {
		core.release()
		return nil, nil, err
	}
	return core, sub, nil
}
