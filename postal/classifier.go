package postal

// LanguageClassifier is a handle on libpostal's language classifier. The
// near-duplicate hashing and duplicate comparison entry points need it.
type LanguageClassifier struct {
	core *ref
	ref  *ref
}

// Close releases the classifier and its core reference.
func (lc *LanguageClassifier) Close() error {
	lc.ref.release()
	lc.core.release()
	return nil
}

func (lc *LanguageClassifier) DataDir() string { return lc.ref.g.dir() }

// PlaceLanguages guesses the languages of a set of address fields.
func (lc *LanguageClassifier) PlaceLanguages(addrs []Address) ([]string, error) {
	if err := lc.ref.enter(); err != nil {
		return nil, err
	}
	defer lc.ref.leave()
	if err := checkAddresses("addresses", addrs); err != nil {
		return nil, err
	}
	return lib.placeLanguages(addrs), nil
}

func (lc *LanguageClassifier) DefaultNearDupeHashOptions() NearDupeHashOptions {
	return lib.defaultNearDupeHashOptions()
}

// NearDupeHashes returns blocking keys for addrs. Records sharing a key
// are candidate duplicates.
func (lc *LanguageClassifier) NearDupeHashes(addrs []Address, opts NearDupeHashOptions) ([]string, error) {
	if err := lc.ref.enter(); err != nil {
		return nil, err
	}
	defer lc.ref.leave()
	if err := checkAddresses("addresses", addrs); err != nil {
		return nil, err
	}
	return lib.nearDupeHashes(addrs, opts, nil), nil
}

// NearDupeHashesLanguages is NearDupeHashes with explicit language hints.
func (lc *LanguageClassifier) NearDupeHashesLanguages(addrs []Address, opts NearDupeHashOptions, languages []string) ([]string, error) {
	if err := lc.ref.enter(); err != nil {
		return nil, err
	}
	defer lc.ref.leave()
	if err := checkAddresses("addresses", addrs); err != nil {
		return nil, err
	}
	if err := checkStrings("languages", languages); err != nil {
		return nil, err
	}
	if languages == nil {
		languages = []string{}
	}
	return lib.nearDupeHashes(addrs, opts, languages), nil
}

func (lc *LanguageClassifier) DefaultDuplicateOptions() DuplicateOptions {
	return lib.defaultDuplicateOptions()
}

func (lc *LanguageClassifier) DuplicateOptionsWithLanguages(languages []string) (DuplicateOptions, error) {
	if err := checkStrings("languages", languages); err != nil {
		return DuplicateOptions{}, err
	}
	return lib.duplicateOptionsWithLanguages(languages), nil
}

// IsToponymDuplicate compares two sets of toponym fields (city, state,
// country and similar).
func (lc *LanguageClassifier) IsToponymDuplicate(a, b []Address, opts DuplicateOptions) (DuplicateStatus, error) {
	if err := lc.ref.enter(); err != nil {
		return NullDuplicateStatus, err
	}
	defer lc.ref.leave()
	if err := checkAddresses("addresses1", a); err != nil {
		return NullDuplicateStatus, err
	}
	if err := checkAddresses("addresses2", b); err != nil {
		return NullDuplicateStatus, err
	}
	if err := checkStrings("languages", opts.Languages); err != nil {
		return NullDuplicateStatus, err
	}
	return lib.isToponymDuplicate(a, b, opts), nil
}

// IsDuplicate compares two values of the given field.
func (lc *LanguageClassifier) IsDuplicate(field Field, value1, value2 string, opts DuplicateOptions) (DuplicateStatus, error) {
	if err := lc.ref.enter(); err != nil {
		return NullDuplicateStatus, err
	}
	defer lc.ref.leave()
	if !field.Valid() {
		return NullDuplicateStatus, &UnsupportedFieldError{Field: field}
	}
	if err := checkString("value1", value1); err != nil {
		return NullDuplicateStatus, err
	}
	if err := checkString("value2", value2); err != nil {
		return NullDuplicateStatus, err
	}
	if err := checkStrings("languages", opts.Languages); err != nil {
		return NullDuplicateStatus, err
	}
	return lib.isDuplicate(field, value1, value2, opts), nil
}

func (lc *LanguageClassifier) IsNameDuplicate(value1, value2 string, opts DuplicateOptions) (DuplicateStatus, error) {
	return lc.IsDuplicate(FieldName, value1, value2, opts)
}

func (lc *LanguageClassifier) IsStreetDuplicate(value1, value2 string, opts DuplicateOptions) (DuplicateStatus, error) {
	return lc.IsDuplicate(FieldStreet, value1, value2, opts)
}

func (lc *LanguageClassifier) IsHouseNumberDuplicate(value1, value2 string, opts DuplicateOptions) (DuplicateStatus, error) {
	return lc.IsDuplicate(FieldHouseNumber, value1, value2, opts)
}

func (lc *LanguageClassifier) IsPOBoxDuplicate(value1, value2 string, opts DuplicateOptions) (DuplicateStatus, error) {
	return lc.IsDuplicate(FieldPOBox, value1, value2, opts)
}

func (lc *LanguageClassifier) IsUnitDuplicate(value1, value2 string, opts DuplicateOptions) (DuplicateStatus, error) {
	return lc.IsDuplicate(FieldUnit, value1, value2, opts)
}

func (lc *LanguageClassifier) IsFloorDuplicate(value1, value2 string, opts DuplicateOptions) (DuplicateStatus, error) {
	return lc.IsDuplicate(FieldFloor, value1, value2, opts)
}

func (lc *LanguageClassifier) IsPostalCodeDuplicate(value1, value2 string, opts DuplicateOptions) (DuplicateStatus, error) {
	return lc.IsDuplicate(FieldPostalCode, value1, value2, opts)
}

func (lc *LanguageClassifier) DefaultFuzzyDuplicateOptions() FuzzyDuplicateOptions {
	return lib.defaultFuzzyDuplicateOptions(nil)
}

func (lc *LanguageClassifier) DefaultFuzzyDuplicateOptionsWithLanguages(languages []string) (FuzzyDuplicateOptions, error) {
	if err := checkStrings("languages", languages); err != nil {
		return FuzzyDuplicateOptions{}, err
	}
	if languages == nil {
		languages = []string{}
	}
	return lib.defaultFuzzyDuplicateOptions(languages), nil
}

// IsDuplicateFuzzy compares two weighted token lists. Only FieldName and
// FieldStreet have fuzzy comparisons.
func (lc *LanguageClassifier) IsDuplicateFuzzy(field Field, tokens1, tokens2 []TokenScore, opts FuzzyDuplicateOptions) (FuzzyDuplicateStatus, error) {
	null := FuzzyDuplicateStatus{Status: NullDuplicateStatus}
	if err := lc.ref.enter(); err != nil {
		return null, err
	}
	defer lc.ref.leave()
	if !field.SupportsFuzzy() {
		return null, &UnsupportedFieldError{Field: field, Fuzzy: true}
	}
	if err := checkTokens("tokens1", tokens1); err != nil {
		return null, err
	}
	if err := checkTokens("tokens2", tokens2); err != nil {
		return null, err
	}
	if err := checkStrings("languages", opts.Languages); err != nil {
		return null, err
	}
	return lib.isDuplicateFuzzy(field, tokens1, tokens2, opts), nil
}

func (lc *LanguageClassifier) IsNameDuplicateFuzzy(tokens1, tokens2 []TokenScore, opts FuzzyDuplicateOptions) (FuzzyDuplicateStatus, error) {
	return lc.IsDuplicateFuzzy(FieldName, tokens1, tokens2, opts)
}

func (lc *LanguageClassifier) IsStreetDuplicateFuzzy(tokens1, tokens2 []TokenScore, opts FuzzyDuplicateOptions) (FuzzyDuplicateStatus, error) {
	return lc.IsDuplicateFuzzy(FieldStreet, tokens1, tokens2, opts)
}
