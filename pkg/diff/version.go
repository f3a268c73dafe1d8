package diff

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
	"github.com/pgdrift/pgdrift/pkg/consts"
	"github.com/pgdrift/pgdrift/pkg/model"
)

// Feature gates by server version.
var (
	minSupported    = goversion.Must(goversion.NewVersion(consts.MinPgVersion))
	vPartitions     = goversion.Must(goversion.NewVersion("10"))
	vIdentity       = goversion.Must(goversion.NewVersion("10"))
	vProcedures     = goversion.Must(goversion.NewVersion("11"))
	vGenerated      = goversion.Must(goversion.NewVersion("12"))
	vReplaceTrigger = goversion.Must(goversion.NewVersion("14"))
)

func parseTargetVersion(raw string) (*goversion.Version, error) {
	if raw == "" {
		raw = consts.DefaultPgVersion
	}
	v, err := goversion.NewVersion(raw)
	if err != nil {
		return nil, &UnsupportedVersionError{Version: raw, Err: err}
	}
	if v.LessThan(minSupported) {
		return nil, &UnsupportedVersionError{Version: raw}
	}
	return v, nil
}

// unsupported returns a warning when the object uses a construct the target
// server version cannot express, or "" when it is fully supported.
func (d *Differ) unsupported(o *model.Object) string {
	switch def := o.Def.(type) {
	case *model.TableDef:
		if (def.PartitionBy != "" || def.PartitionOf != "") && d.version.LessThan(vPartitions) {
			return fmt.Sprintf("declarative partitioning requires server %s or newer", vPartitions)
		}
	case *model.ColumnDef:
		if def.Identity != "" && d.version.LessThan(vIdentity) {
			return fmt.Sprintf("identity columns require server %s or newer", vIdentity)
		}
		if def.Generated != nil && d.version.LessThan(vGenerated) {
			return fmt.Sprintf("generated columns require server %s or newer", vGenerated)
		}
	case *model.FunctionDef:
		if def.IsProcedure && d.version.LessThan(vProcedures) {
			return fmt.Sprintf("procedures require server %s or newer", vProcedures)
		}
	}
	return ""
}

// canReplaceTrigger reports whether the target supports CREATE OR REPLACE
// TRIGGER; older servers need a drop and a fresh create.
func (d *Differ) canReplaceTrigger() bool {
	return d.version.GreaterThanOrEqual(vReplaceTrigger)
}
