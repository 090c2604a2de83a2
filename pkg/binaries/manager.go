package binaries

import (
	"github.com/jihwankim/shader-fuzz/pkg/artifacts"
	"github.com/jihwankim/shader-fuzz/pkg/reporting"
)

// Manager resolves binary descriptors to filesystem paths. An override list
// maps names to pinned descriptors; the catalog maps descriptors to archive
// sets. Child managers layer extra overrides on top while sharing the
// resolved-path cache and catalog with the parent.
type Manager struct {
	overrides []Binary
	platform  string
	resolved  map[string]string
	catalog   []CatalogEntry
	store     *artifacts.Store
	logger    *reporting.Logger
}

// NewManager creates a manager over the built-in catalog. An empty platform
// selects the current platform tag.
func NewManager(overrides []Binary, platform string, store *artifacts.Store, logger *reporting.Logger) *Manager {
	return NewManagerWithCatalog(overrides, platform, store, BuiltInCatalog(), logger)
}

// NewManagerWithCatalog creates a manager over an explicit catalog.
func NewManagerWithCatalog(
	overrides []Binary,
	platform string,
	store *artifacts.Store,
	catalog []CatalogEntry,
	logger *reporting.Logger,
) *Manager {
	if platform == "" {
		platform = CurrentPlatform()
	}
	if logger == nil {
		logger = reporting.NewNopLogger()
	}
	return &Manager{
		overrides: overrides,
		platform:  platform,
		resolved:  make(map[string]string),
		catalog:   catalog,
		store:     store,
		logger:    logger,
	}
}

// ChildWithOverrides returns a manager whose override list is extra followed
// by this manager's overrides. The resolved-path cache and the catalog are
// shared with the parent; the catalog is not rescanned.
func (m *Manager) ChildWithOverrides(extra []Binary) *Manager {
	overrides := make([]Binary, 0, len(extra)+len(m.overrides))
	overrides = append(overrides, extra...)
	overrides = append(overrides, m.overrides...)
	return &Manager{
		overrides: overrides,
		platform:  m.platform,
		resolved:  m.resolved,
		catalog:   m.catalog,
		store:     m.store,
		logger:    m.logger,
	}
}

// ByName returns the first override descriptor with the given name.
func (m *Manager) ByName(name string) (Binary, error) {
	for _, binary := range m.overrides {
		if binary.Name == name {
			return binary, nil
		}
	}
	return Binary{}, &BinaryNotFoundError{Name: name}
}

// ResolveByName looks the name up in the override list and resolves the
// winning descriptor to a path.
func (m *Manager) ResolveByName(name string) (string, Binary, error) {
	binary, err := m.ByName(name)
	if err != nil {
		return "", Binary{}, err
	}
	path, err := m.Resolve(binary)
	if err != nil {
		return "", Binary{}, err
	}
	return path, binary, nil
}

// Resolve maps a descriptor to a concrete on-disk path, provisioning the
// owning artifact if needed. Lookup tags are the descriptor's tags plus the
// current platform; a catalog binary matches when names and versions are
// equal and the lookup tags are a subset of its tags. First match wins and
// the result is cached for the life of the process.
func (m *Manager) Resolve(binary Binary) (string, error) {
	key := binary.cacheKey()
	if path, ok := m.resolved[key]; ok {
		return path, nil
	}

	m.logger.Debug("Resolving binary", "name", binary.Name, "version", binary.Version)

	lookupTags := append(append([]string{}, binary.Tags...), m.platform)

	for _, entry := range m.catalog {
		for _, catalogBinary := range entry.ArchiveSet.Binaries {
			if catalogBinary.Name != binary.Name {
				continue
			}
			if catalogBinary.Version != binary.Version {
				continue
			}
			if !tagSubset(lookupTags, catalogBinary.Tags) {
				continue
			}

			if err := m.store.ExecuteIfNeeded(entry.ArtifactPath, entry.ArchiveSet.Archives); err != nil {
				return "", err
			}

			path, err := m.store.InnerPath(entry.ArtifactPath, catalogBinary.Path)
			if err != nil {
				return "", err
			}

			m.resolved[key] = path
			return path, nil
		}
	}

	return "", &BinaryPathNotFoundError{Binary: binary}
}
