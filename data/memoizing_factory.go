package data

// MemoizingFactory is a test data generator that caches the values it
// produces, so that asking for the same parameter twice returns the same
// value rather than a newly built one.
//
// Each newly built value is stamped with a version number that increases by
// one on every build. Version numbers start at 1 even if the factory was
// created with a starting version of 0, since 0 conventionally means "not
// versioned". Fixtures use this to produce store records whose versions are
// predictable within a test but distinct across builds.
type MemoizingFactory[ParamT comparable, ResultT any] struct {
	factoryFn          func(ParamT) ResultT
	transformVersionFn func(ResultT, int) ResultT
	cache              map[ParamT]ResultT
	nextVersion        int
}

// NewMemoizingFactory creates a MemoizingFactory. The factoryFn builds a new
// value for a parameter; the transformVersionFn, if non-nil, returns a copy
// of a value with the given version number applied.
func NewMemoizingFactory[ParamT comparable, ResultT any](
	startingVersion int,
	factoryFn func(ParamT) ResultT,
	transformVersionFn func(ResultT, int) ResultT,
) *MemoizingFactory[ParamT, ResultT] {
	return &MemoizingFactory[ParamT, ResultT]{
		factoryFn:          factoryFn,
		transformVersionFn: transformVersionFn,
		nextVersion:        startingVersion,
	}
}

// Create builds a new value for this parameter, replacing any cached one.
func (f *MemoizingFactory[P, R]) Create(param P) R {
	item := f.factoryFn(param)
	version := f.nextVersion
	if version == 0 {
		version = 1
	}
	if f.transformVersionFn != nil {
		item = f.transformVersionFn(item, version)
	}
	f.nextVersion = version + 1
	if f.cache == nil {
		f.cache = make(map[P]R)
	}
	f.cache[param] = item
	return item
}

// GetOrCreate returns the cached value for this parameter, building one only
// if no call has asked for this parameter before.
func (f *MemoizingFactory[P, R]) GetOrCreate(param P) R {
	if item, ok := f.cache[param]; ok {
		return item
	}
	return f.Create(param)
}
