package chart

import (
	"strings"

	"github.com/arcalife/dental-api/internal/domain/anatomy"
	"github.com/arcalife/dental-api/internal/domain/procedure"
	"github.com/arcalife/dental-api/internal/platform/registry"
)

// secondaryMaterial is the keyword whose presence in a prosthetic record's
// notes overrides the code's primary material.
const secondaryMaterial = "zirconia"

// Reconstruct replays a patient's ledger, in insertion order, into per-tooth
// rendering state. It is pure and total: malformed notes fall back to
// defaults, unknown teeth classify as anterior, and there is no error path.
//
// Precedence is rule-based, not time-based: a zone set by a filling is never
// recolored by a later non-filling record, while records of any other kind
// overwrite each other in replay order. DISABLED markers are applied in a
// second pass so they override everything except pontics, which are never
// rendered disabled.
func Reconstruct(records []Record) map[int]*ToothState {
	states := make(map[int]*ToothState)
	// zone -> category of the record that set it, per tooth
	setters := make(map[int]map[string]string)
	disabledSeen := make(map[int]bool)
	var disabled []Record

	ensure := func(tooth int) *ToothState {
		st, ok := states[tooth]
		if !ok {
			st = newToothState()
			states[tooth] = st
			setters[tooth] = make(map[string]string)
		}
		return st
	}

	setZone := func(tooth int, zone, value, category string) {
		if setters[tooth][zone] == registry.CategoryFilling && category != registry.CategoryFilling {
			return
		}
		states[tooth].Zones[zone] = value
		setters[tooth][zone] = category
	}

	for _, rec := range records {
		if rec.Code == registry.SentinelDisabled || rec.Category == registry.CategoryMarker {
			// Deferred to the second pass; only the first marker per
			// tooth counts, extras are a data hygiene anomaly.
			if rec.Tooth != 0 && !disabledSeen[rec.Tooth] {
				disabledSeen[rec.Tooth] = true
				disabled = append(disabled, rec)
			}
			continue
		}
		if rec.Tooth == 0 {
			continue
		}
		st := ensure(rec.Tooth)

		switch {
		case rec.Category == registry.CategoryCrown || rec.Category == registry.CategoryPontic:
			st.WholeTooth = &Overlay{
				Kind:         OverlayCrown,
				Material:     overlayMaterial(rec),
				RenderStatus: rec.Status.RenderState(),
				Bridge:       bridgeRef(rec),
			}

		case rec.Category == registry.CategoryScaling:
			// Scaling is recorded but never colors the chart,
			// surfaces or not.
			st.History = append(st.History, rec.Code)

		case len(rec.SubSurfaces) > 0:
			for _, zone := range rec.SubSurfaces {
				switch rec.Category {
				case registry.CategoryFilling:
					setZone(rec.Tooth, zone, "filling-"+rec.Status.RenderState()+"-"+fillingMaterial(rec), rec.Category)
				case registry.CategoryExtraction:
					setZone(rec.Tooth, zone, "extraction-"+rec.Status.RenderState(), rec.Category)
				case registry.CategorySealing:
					setZone(rec.Tooth, zone, "sealing-"+rec.Status.RenderState(), rec.Category)
				default:
					setZone(rec.Tooth, zone, rec.Code+"-"+rec.Status.RenderState(), rec.Category)
				}
			}
			if rec.Category == registry.CategoryExtraction {
				st.WholeTooth = &Overlay{
					Kind:         OverlayExtraction,
					RenderStatus: rec.Status.RenderState(),
				}
			}

		case rec.Category == registry.CategorySealing:
			// Legacy sealing rows carry no surfaces; derive them the
			// way the sealing builder would.
			for _, zone := range anatomy.OcclusalZones(anatomy.Classify(rec.Tooth)) {
				setZone(rec.Tooth, zone, "sealing-"+rec.Status.RenderState(), rec.Category)
			}
		}
	}

	for _, rec := range disabled {
		st := ensure(rec.Tooth)
		if isPontic(st) {
			continue
		}
		st.IsDisabled = true
		for _, zone := range anatomy.Zones(anatomy.Classify(rec.Tooth)) {
			st.Zones[zone] = ZoneDisabled
			setters[rec.Tooth][zone] = registry.CategoryMarker
		}
	}

	return states
}

func isPontic(st *ToothState) bool {
	if st.WholeTooth == nil {
		return false
	}
	b := st.WholeTooth.Bridge
	return b != nil && b.Role == procedure.RolePontic
}

// overlayMaterial resolves a prosthetic record's material: a secondary
// material keyword in the notes wins over the code's primary material.
func overlayMaterial(rec Record) string {
	if strings.Contains(strings.ToLower(rec.Notes), secondaryMaterial) {
		return secondaryMaterial
	}
	if rec.CodeMaterial != "" {
		return rec.CodeMaterial
	}
	return "metal-ceramic"
}

func fillingMaterial(rec Record) string {
	if rec.Material != "" {
		return rec.Material
	}
	return procedure.DefaultFillingMaterial
}

// bridgeRef reads bridge membership off a record, preferring the structured
// fields and falling back to legacy notes notation. Pontic-category records
// always carry the pontic role so the disabled pass can recognize them.
func bridgeRef(rec Record) *BridgeRef {
	ref := &BridgeRef{
		GroupID:   rec.BridgeGroup,
		Role:      rec.BridgeRole,
		IsPrimary: rec.BridgeMain,
	}
	if ref.GroupID == "" {
		if info, ok := procedure.ParseBridgeNotes(rec.Notes); ok {
			ref.GroupID = info.GroupID
			if ref.Role == "" {
				ref.Role = info.Role
			}
			ref.IsPrimary = ref.IsPrimary || info.Main
		}
	}
	if rec.Category == registry.CategoryPontic && ref.Role == "" {
		ref.Role = procedure.RolePontic
	}
	if ref.GroupID == "" && ref.Role == "" {
		return nil
	}
	return ref
}
