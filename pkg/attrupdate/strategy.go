package attrupdate

import (
	"context"
	"fmt"
	"regexp"

	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/drs"
)

// ErrInvalidVariantLabel is returned when a variant label does not have
// the rXiYpZfW shape.
var ErrInvalidVariantLabel = fmt.Errorf("variant label must look like r1i1p1f1")

// Strategy is one kind of attribute update. The update sequence is the
// same for all of them; strategies differ only in which in-file edits
// step two issues and which identity field moves in the final database
// step.
type Strategy interface {
	Name() string

	// Validate rejects impossible updates before anything is touched.
	Validate(file *models.DataFile) error

	// SkipRelocate reports whether the canonical directory is unchanged
	// by this update, making the relocation step a no-op.
	SkipRelocate() bool

	// ChangesDataRequest reports whether the file must move to a data
	// request matching its new identity.
	ChangesDataRequest() bool

	// RewriteFile issues the in-file metadata edits against path.
	RewriteFile(ctx context.Context, run CommandRunner, path string, file *models.DataFile) error

	// Apply sets the new value on the in-memory record so the path
	// builder sees the new identity. No database access.
	Apply(file *models.DataFile)

	// UpdateVocabulary resolves or creates the changed vocabulary row
	// and repoints the record's foreign key.
	UpdateVocabulary(ctx context.Context, tx store.MetadataStore, file *models.DataFile) error
}

// futureInfoURL builds the further_info_url a file will have once the
// strategy's new value is applied.
func futureInfoURL(file *models.DataFile, apply func(*models.DataFile)) string {
	clone := *file
	apply(&clone)
	return drs.FurtherInfoURL(&clone)
}

// SourceIDUpdate corrects a mislabelled source id (climate model).
type SourceIDUpdate struct {
	NewValue string
}

func (u SourceIDUpdate) Name() string             { return "source_id" }
func (u SourceIDUpdate) SkipRelocate() bool       { return false }
func (u SourceIDUpdate) ChangesDataRequest() bool { return true }

func (u SourceIDUpdate) Validate(file *models.DataFile) error {
	if u.NewValue == "" {
		return fmt.Errorf("new source id is empty")
	}
	return nil
}

func (u SourceIDUpdate) RewriteFile(ctx context.Context, run CommandRunner, path string, file *models.DataFile) error {
	if err := ncatted(ctx, run, path, "source_id", "global", "c", u.NewValue); err != nil {
		return err
	}
	return ncatted(ctx, run, path, "further_info_url", "global", "c",
		futureInfoURL(file, u.Apply))
}

func (u SourceIDUpdate) Apply(file *models.DataFile) {
	file.ClimateModel.ShortName = u.NewValue
}

func (u SourceIDUpdate) UpdateVocabulary(ctx context.Context, tx store.MetadataStore, file *models.DataFile) error {
	model, err := tx.GetOrCreateClimateModel(ctx, u.NewValue, u.NewValue)
	if err != nil {
		return err
	}
	file.ClimateModelID = model.ID
	file.ClimateModel = *model
	return nil
}

// VariantLabelUpdate corrects a variant label (rip code), keeping the
// four decomposed index attributes in step with it.
type VariantLabelUpdate struct {
	NewValue string
}

var variantLabelPattern = regexp.MustCompile(`^r(\d+)i(\d+)p(\d+)f(\d+)$`)

func (u VariantLabelUpdate) Name() string             { return "variant_label" }
func (u VariantLabelUpdate) SkipRelocate() bool       { return false }
func (u VariantLabelUpdate) ChangesDataRequest() bool { return true }

func (u VariantLabelUpdate) Validate(file *models.DataFile) error {
	if !variantLabelPattern.MatchString(u.NewValue) {
		return fmt.Errorf("%w: %q", ErrInvalidVariantLabel, u.NewValue)
	}
	return nil
}

func (u VariantLabelUpdate) RewriteFile(ctx context.Context, run CommandRunner, path string, file *models.DataFile) error {
	if err := ncatted(ctx, run, path, "variant_label", "global", "c", u.NewValue); err != nil {
		return err
	}

	indices := variantLabelPattern.FindStringSubmatch(u.NewValue)
	for i, attr := range []string{
		"realization_index", "initialization_index", "physics_index", "forcing_index",
	} {
		if err := ncatted(ctx, run, path, attr, "global", "s", indices[i+1]); err != nil {
			return err
		}
	}

	return ncatted(ctx, run, path, "further_info_url", "global", "c",
		futureInfoURL(file, u.Apply))
}

func (u VariantLabelUpdate) Apply(file *models.DataFile) {
	file.RipCode = u.NewValue
}

func (u VariantLabelUpdate) UpdateVocabulary(ctx context.Context, tx store.MetadataStore, file *models.DataFile) error {
	// The rip code is a plain column; Apply already set it.
	return nil
}

// VarNameToOutNameUpdate renames the variable inside the file from its
// cmor name to the variable request's out name. The canonical directory
// does not encode which of the two is in use, so relocation is skipped
// and only the filename changes.
type VarNameToOutNameUpdate struct{}

func (u VarNameToOutNameUpdate) Name() string             { return "out_name" }
func (u VarNameToOutNameUpdate) SkipRelocate() bool       { return true }
func (u VarNameToOutNameUpdate) ChangesDataRequest() bool { return false }

func (u VarNameToOutNameUpdate) Validate(file *models.DataFile) error {
	if file.VariableRequest.OutName == "" {
		return fmt.Errorf("variable request %s/%s has no out name",
			file.VariableRequest.TableName, file.VariableRequest.CmorName)
	}
	return nil
}

func (u VarNameToOutNameUpdate) RewriteFile(ctx context.Context, run CommandRunner, path string, file *models.DataFile) error {
	outName := file.VariableRequest.OutName
	if err := ncrename(ctx, run, path, file.VariableRequest.CmorName, outName); err != nil {
		return err
	}
	return ncatted(ctx, run, path, "variable_id", "global", "c", outName)
}

func (u VarNameToOutNameUpdate) Apply(file *models.DataFile) {
	// The out name is already on the variable request; the path builder
	// prefers it automatically.
}

func (u VarNameToOutNameUpdate) UpdateVocabulary(ctx context.Context, tx store.MetadataStore, file *models.DataFile) error {
	return nil
}

// MipEraUpdate reclassifies a file under a different MIP era (project).
type MipEraUpdate struct {
	NewValue string
}

func (u MipEraUpdate) Name() string             { return "mip_era" }
func (u MipEraUpdate) SkipRelocate() bool       { return false }
func (u MipEraUpdate) ChangesDataRequest() bool { return true }

func (u MipEraUpdate) Validate(file *models.DataFile) error {
	if u.NewValue == "" {
		return fmt.Errorf("new mip era is empty")
	}
	return nil
}

func (u MipEraUpdate) RewriteFile(ctx context.Context, run CommandRunner, path string, file *models.DataFile) error {
	if err := ncatted(ctx, run, path, "mip_era", "global", "c", u.NewValue); err != nil {
		return err
	}
	return ncatted(ctx, run, path, "further_info_url", "global", "c",
		futureInfoURL(file, u.Apply))
}

func (u MipEraUpdate) Apply(file *models.DataFile) {
	file.Project.ShortName = u.NewValue
}

func (u MipEraUpdate) UpdateVocabulary(ctx context.Context, tx store.MetadataStore, file *models.DataFile) error {
	project, err := tx.GetOrCreateProject(ctx, u.NewValue, u.NewValue)
	if err != nil {
		return err
	}
	file.ProjectID = project.ID
	file.Project = *project
	return nil
}
