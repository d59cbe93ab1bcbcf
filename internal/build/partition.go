package build

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/assets"
)

// hashLen is the number of hex characters of the content hash used in
// output file names.
const hashLen = 8

// ReadFunc returns the content of a module or asset path from the manifest.
type ReadFunc func(path string) ([]byte, error)

// PartitionInput is everything the partitioner needs. It performs no I/O of
// its own beyond calling Read.
type PartitionInput struct {
	Modules *config.ModuleManifest
	Routes  *config.RouteTable
	Build   config.BuildConfig
	Read    ReadFunc
}

// Unit is a planned load unit with its content.
type Unit struct {
	assets.Unit

	// Content is the concatenated module sources, in module order.
	Content []byte
}

// Asset is a planned static asset.
type Asset struct {
	Source   string
	File     string
	Category string
	Hash     string
	Size     int64
	Inline   string
	Content  []byte
}

// Warning is a non-fatal finding, such as an oversized unit.
type Warning struct {
	Unit  string
	Size  int64
	Limit int64
}

func (w Warning) String() string {
	return fmt.Sprintf("unit %q is %s, above the %s warning limit",
		w.Unit, humanize.Bytes(uint64(w.Size)), humanize.Bytes(uint64(w.Limit)))
}

// Plan is the outcome of partitioning. Units and Assets are sorted by name
// and source.
type Plan struct {
	Units    []Unit
	Assets   []Asset
	Warnings []Warning
	Index    *assets.UnitIndex
	Manifest *assets.Manifest
}

// TotalSize returns the combined size of all units and assets.
func (p *Plan) TotalSize() int64 {
	var n int64
	for _, u := range p.Units {
		n += u.Size
	}
	for _, a := range p.Assets {
		n += a.Size
	}
	return n
}

// Unit returns the named planned unit.
func (p *Plan) Unit(name string) (Unit, bool) {
	i := sort.Search(len(p.Units), func(i int) bool { return p.Units[i].Name >= name })
	if i < len(p.Units) && p.Units[i].Name == name {
		return p.Units[i], true
	}
	return Unit{}, false
}

// Partition groups modules into load units and names assets. The result is
// a pure function of its input: the same manifest, routes and file contents
// always give the same plan.
func Partition(in PartitionInput) (*Plan, error) {
	if in.Modules == nil || in.Routes == nil || in.Read == nil {
		return nil, errors.New("E301").WithDetail("partition input is incomplete")
	}
	cfg := in.Build
	if cfg.EntryName == "" {
		cfg.EntryName = config.DefaultEntryName
	}
	if cfg.VendorUnit == "" {
		cfg.VendorUnit = config.DefaultVendorUnit
	}
	if cfg.AssetCategories == nil {
		cfg.AssetCategories = config.DefaultAssetCategories()
	}

	p := &partitioner{
		in:      in,
		cfg:     cfg,
		members: make(map[string][]string),
		kinds:   make(map[string]assets.UnitKind),
		owner:   make(map[string]string),
	}
	if err := p.assignManualChunks(); err != nil {
		return nil, err
	}
	if err := p.assignViews(); err != nil {
		return nil, err
	}
	p.assignRest()
	if err := p.checkImports(); err != nil {
		return nil, err
	}

	plan := &Plan{
		Index:    assets.NewUnitIndex(),
		Manifest: assets.NewManifest(),
	}
	for route, unit := range p.routes {
		plan.Index.Routes[route] = unit
	}
	if err := p.buildUnits(plan); err != nil {
		return nil, err
	}
	if err := p.buildAssets(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

type partitioner struct {
	in  PartitionInput
	cfg config.BuildConfig

	members map[string][]string
	kinds   map[string]assets.UnitKind
	owner   map[string]string
	routes  map[string]string
}

func (p *partitioner) claim(unit string, kind assets.UnitKind, module string) error {
	if prev, ok := p.owner[module]; ok {
		return errors.New("E301").
			WithDetailf("module %q is assigned to both %q and %q", module, prev, unit)
	}
	if k, ok := p.kinds[unit]; ok && k != kind {
		return errors.New("E301").
			WithDetailf("unit name %q is used for both %s and %s modules", unit, k, kind)
	}
	p.owner[module] = unit
	p.kinds[unit] = kind
	p.members[unit] = append(p.members[unit], module)
	return nil
}

func (p *partitioner) assignManualChunks() error {
	names := make([]string, 0, len(p.cfg.ManualChunks))
	for name := range p.cfg.ManualChunks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, unit := range names {
		if unit == p.cfg.EntryName || unit == p.cfg.VendorUnit {
			return errors.New("E301").
				WithDetailf("manual chunk %q collides with a reserved unit name", unit)
		}
		mods := append([]string(nil), p.cfg.ManualChunks[unit]...)
		sort.Strings(mods)
		for _, name := range mods {
			mod, ok := p.in.Modules.Lookup(name)
			if !ok {
				return errors.New("E301").
					WithDetailf("manual chunk %q names unknown module %q", unit, name)
			}
			if mod.Kind != config.KindRuntime {
				return errors.New("E301").
					WithDetailf("manual chunk %q names %s module %q; only runtime modules may be grouped", unit, mod.Kind, name)
			}
			if err := p.claim(unit, assets.KindRuntime, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *partitioner) assignViews() error {
	p.routes = make(map[string]string)
	for _, e := range p.in.Routes.Routes {
		if e.Redirect != "" || e.Module == "" {
			continue
		}
		mod, ok := p.in.Modules.Lookup(e.Module)
		if !ok {
			return errors.New("E301").
				WithDetailf("route %q uses module %q, which is not in the module manifest", e.Name, e.Module)
		}
		if mod.Kind != config.KindView {
			return errors.New("E301").
				WithDetailf("route %q uses %s module %q; routes need a view module", e.Name, mod.Kind, e.Module)
		}
		if e.Name == p.cfg.EntryName || e.Name == p.cfg.VendorUnit {
			return errors.New("E301").
				WithDetailf("route name %q collides with a reserved unit name", e.Name)
		}
		if err := p.claim(e.Name, assets.KindView, e.Module); err != nil {
			return err
		}
		p.routes[e.Name] = e.Name
	}

	for _, name := range p.in.Modules.Names(config.KindView) {
		if _, ok := p.owner[name]; !ok {
			return errors.New("E301").
				WithDetailf("view module %q is not used by any route", name)
		}
	}
	return nil
}

// assignRest puts ungrouped runtime modules in the vendor unit and entry
// modules in the entry unit. Neither can fail: names were checked above.
func (p *partitioner) assignRest() {
	for _, name := range p.in.Modules.Names(config.KindRuntime) {
		if _, ok := p.owner[name]; !ok {
			_ = p.claim(p.cfg.VendorUnit, assets.KindRuntime, name)
		}
	}
	for _, name := range p.in.Modules.Names(config.KindEntry) {
		_ = p.claim(p.cfg.EntryName, assets.KindEntry, name)
	}
}

// checkImports rejects static imports of view modules. A view unit is
// fetched when its route is first navigated to, never as a dependency of
// another unit.
func (p *partitioner) checkImports() error {
	for _, mod := range p.in.Modules.Modules {
		for _, imp := range mod.Imports {
			target, ok := p.in.Modules.Lookup(imp)
			if !ok || target.Kind != config.KindView {
				continue
			}
			return errors.New("E301").
				WithDetailf("%s module %q statically imports view module %q; views must be loaded by their route", mod.Kind, mod.Name, imp)
		}
	}
	return nil
}

func (p *partitioner) buildUnits(plan *Plan) error {
	names := make([]string, 0, len(p.members))
	for name := range p.members {
		names = append(names, name)
	}
	sort.Strings(names)

	limit := int64(p.cfg.ChunkSizeWarningLimit) * 1000
	for _, name := range names {
		mods := append([]string(nil), p.members[name]...)
		sort.Strings(mods)

		var content []byte
		imports := make(map[string]bool)
		for _, modName := range mods {
			mod, _ := p.in.Modules.Lookup(modName)
			src, err := p.in.Read(mod.Path)
			if err != nil {
				return errors.New("E303").
					WithDetailf("module %q (%s): %v", modName, mod.Path, err).
					Wrap(err)
			}
			content = append(content, "/* "+modName+" */\n"...)
			content = append(content, src...)
			if len(src) > 0 && src[len(src)-1] != '\n' {
				content = append(content, '\n')
			}
			for _, imp := range mod.Imports {
				if u := p.owner[imp]; u != name {
					imports[u] = true
				}
			}
		}

		sum := sha256.Sum256(content)
		hash := hex.EncodeToString(sum[:])
		u := Unit{
			Unit: assets.Unit{
				Name:    name,
				Kind:    p.kinds[name],
				File:    fmt.Sprintf("assets/js/%s-%s.js", name, hash[:hashLen]),
				Hash:    hash,
				Size:    int64(len(content)),
				Modules: mods,
				Imports: sortedKeys(imports),
			},
			Content: content,
		}
		plan.Units = append(plan.Units, u)
		plan.Index.Add(u.Unit)
		for _, modName := range mods {
			mod, _ := p.in.Modules.Lookup(modName)
			plan.Manifest.Set(mod.Path, u.File)
		}
		if limit > 0 && u.Size > limit {
			plan.Warnings = append(plan.Warnings, Warning{Unit: name, Size: u.Size, Limit: limit})
		}
	}
	return nil
}

func (p *partitioner) buildAssets(plan *Plan) error {
	sources := append([]string(nil), p.in.Modules.Assets...)
	sort.Strings(sources)

	for i, src := range sources {
		if i > 0 && sources[i-1] == src {
			continue
		}
		content, err := p.in.Read(src)
		if err != nil {
			return errors.New("E303").
				WithDetailf("asset %s: %v", src, err).
				Wrap(err)
		}

		sum := sha256.Sum256(content)
		hash := hex.EncodeToString(sum[:])
		ext := path.Ext(src)
		base := strings.TrimSuffix(path.Base(src), ext)
		category := AssetCategory(p.cfg.AssetCategories, ext)

		a := Asset{
			Source:   src,
			File:     fmt.Sprintf("assets/%s/%s-%s%s", category, base, hash[:hashLen], ext),
			Category: category,
			Hash:     hash,
			Size:     int64(len(content)),
			Content:  content,
		}
		if int64(p.cfg.AssetsInlineLimit) > a.Size {
			a.Inline = dataURI(ext, content)
			if plan.Index.Inline == nil {
				plan.Index.Inline = make(map[string]string)
			}
			plan.Index.Inline[src] = a.Inline
		}
		plan.Assets = append(plan.Assets, a)
		plan.Manifest.Set(src, a.File)
	}
	return nil
}

// AssetCategory returns the output directory for a file extension such as
// ".png". Unlisted extensions use the extension itself; files without one
// go to "misc".
func AssetCategory(categories map[string]string, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return "misc"
	}
	if dir, ok := categories[ext]; ok {
		return dir
	}
	return ext
}

func dataURI(ext string, content []byte) string {
	typ := mime.TypeByExtension(strings.ToLower(ext))
	if typ == "" {
		typ = "application/octet-stream"
	}
	return "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(content)
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
