package postal

// Parser is a handle on libpostal's address parser.
type Parser struct {
	core *ref
	ref  *ref
}

// Close releases the parser and its core reference.
func (p *Parser) Close() error {
	p.ref.release()
	p.core.release()
	return nil
}

func (p *Parser) DataDir() string { return p.ref.g.dir() }

// DefaultOptions returns libpostal's default parser options (no language
// or country hint).
func (p *Parser) DefaultOptions() AddressParserOptions {
	return lib.defaultParserOptions()
}

// ParseAddress labels the parts of input. ok is false when libpostal
// returned no response at all; components keep libpostal's order.
func (p *Parser) ParseAddress(input string, opts AddressParserOptions) ([]ParsedComponent, bool, error) {
	if err := p.ref.enter(); err != nil {
		return nil, false, err
	}
	defer p.ref.leave()
	if err := checkString("input", input); err != nil {
		return nil, false, err
	}
	if err := checkString("language", opts.Language); err != nil {
		return nil, false, err
	}
	if err := checkString("country", opts.Country); err != nil {
		return nil, false, err
	}
	components, ok := lib.parseAddress(input, opts)
	return components, ok, nil
}

// PrintFeatures toggles libpostal's feature debug output on stdout.
func (p *Parser) PrintFeatures(on bool) (bool, error) {
	if err := p.ref.enter(); err != nil {
		return false, err
	}
	defer p.ref.leave()
	return lib.parserPrintFeatures(on), nil
}
