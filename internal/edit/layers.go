package edit

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/core"
)

// ErrLayerDisabled is returned when a disabled layer is configured.
var ErrLayerDisabled = errors.New("layer disabled")

// ErrUnknownLayer is returned for a layer name no sheet belongs to.
var ErrUnknownLayer = errors.New("unknown layer")

// ErrCoreLayer is returned when disabling the core layer.
var ErrCoreLayer = errors.New("core layer cannot be disabled")

const layerPropertyPrefix = "layer."

// LayerProperty returns the property key that stores whether layer is on.
func LayerProperty(layer core.Layer) string {
	return layerPropertyPrefix + string(layer)
}

// Layers returns the optional layers of the registered sheets, in
// registration order. The core layer is not listed.
func Layers() []core.Layer {
	seen := make(map[core.Layer]bool)
	var out []core.Layer
	for _, def := range core.All() {
		l := def.Info.Layer
		if l == core.LayerCore || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func checkLayer(layer core.Layer) error {
	if layer == core.LayerCore {
		return nil
	}
	for _, l := range Layers() {
		if l == layer {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
}

// LayerEnabled reports whether a layer is on. The core layer always is.
func (o *Orchestrator) LayerEnabled(ctx context.Context, layer core.Layer) (bool, error) {
	if layer == core.LayerCore || layer == "" {
		return true, nil
	}
	v, ok, err := o.props.Get(ctx, LayerProperty(layer))
	if err != nil {
		return false, fmt.Errorf("read layer %s: %w", layer, err)
	}
	if !ok {
		return false, nil
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}
	return on, nil
}

// EnableLayer switches a layer on.
func (o *Orchestrator) EnableLayer(ctx context.Context, layer core.Layer) error {
	return o.setLayer(ctx, layer, true)
}

// DisableLayer switches a layer off. Its sheets and data are kept.
func (o *Orchestrator) DisableLayer(ctx context.Context, layer core.Layer) error {
	return o.setLayer(ctx, layer, false)
}

func (o *Orchestrator) setLayer(ctx context.Context, layer core.Layer, on bool) error {
	if err := checkLayer(layer); err != nil {
		return err
	}
	if layer == core.LayerCore {
		if !on {
			return ErrCoreLayer
		}
		return nil
	}
	action := audit.ActionLayerDisable
	if on {
		action = audit.ActionLayerEnable
	}
	if err := o.props.Set(ctx, LayerProperty(layer), strconv.FormatBool(on)); err != nil {
		err = fmt.Errorf("write layer %s: %w", layer, err)
		o.record(ctx, audit.Entry{Action: action, Detail: string(layer)}, err)
		return err
	}
	o.log(ctx).Info("layer updated", "layer", layer, "enabled", on)
	o.record(ctx, audit.Entry{Action: action, Detail: string(layer)}, nil)
	return nil
}

// LayerStatus is the on/off state of one layer.
type LayerStatus struct {
	Layer   core.Layer `json:"layer"`
	Enabled bool       `json:"enabled"`
	Sheets  []string   `json:"sheets"`
}

// LayerStatuses lists every layer, core first.
func (o *Orchestrator) LayerStatuses(ctx context.Context) ([]LayerStatus, error) {
	layers := append([]core.Layer{core.LayerCore}, Layers()...)
	out := make([]LayerStatus, 0, len(layers))
	for _, l := range layers {
		on, err := o.LayerEnabled(ctx, l)
		if err != nil {
			return nil, err
		}
		st := LayerStatus{Layer: l, Enabled: on}
		for _, def := range core.ByLayer(l) {
			st.Sheets = append(st.Sheets, def.Info.Key)
		}
		out = append(out, st)
	}
	return out, nil
}
