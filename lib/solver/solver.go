// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/spiral/lib/build"
	"github.com/bureau-foundation/spiral/lib/config"
	"github.com/bureau-foundation/spiral/lib/device"
	"github.com/bureau-foundation/spiral/lib/execute"
	"github.com/bureau-foundation/spiral/lib/fft"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/native"
	"github.com/bureau-foundation/spiral/lib/problem"
	"github.com/bureau-foundation/spiral/lib/registry"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

// BoundFunction is a callable artifact entry point that must be
// closed when the solver is done with it.
type BoundFunction interface {
	native.Function
	Close() error
}

// Binder loads an artifact's entry points. The default binds through
// [native.Bind].
type Binder func(path string, names metadata.Names, placement tensor.Placement) (BoundFunction, error)

// Builder produces a missing artifact and returns its path.
type Builder interface {
	Build(ctx context.Context, job build.Job) (string, error)
}

// Environment holds a solver's collaborators. Every field is optional
// except Runtime on device platforms.
type Environment struct {
	// Resolver locates prebuilt artifacts. Nil resolves nothing.
	Resolver *registry.Resolver

	// Runtime serves device placements.
	Runtime device.Runtime

	// Builder is asked for the artifact when Resolver has none. Nil
	// makes a missing artifact an error wrapping
	// [registry.ErrNotFound].
	Builder Builder

	Binder Binder
	Logger *slog.Logger
}

// Solver runs one transform. Its placement is fixed at construction.
// A Solver is not safe for concurrent use.
type Solver struct {
	descriptor    problem.Descriptor
	family        *family
	platform      string
	placement     tensor.Placement
	printRuleTree bool
	adapter       *execute.Adapter
	environment   Environment
	logger        *slog.Logger

	plans fft.Plans
	bound BoundFunction
	path  string
}

// New returns a solver for descriptor under options. The options'
// platform must be resolved, and its colmajor and realctype settings
// must agree with the descriptor.
func New(descriptor problem.Descriptor, options config.Options, environment Environment) (*Solver, error) {
	if descriptor.IsZero() {
		return nil, errors.New("solver for a zero descriptor")
	}
	f, err := familyOf(descriptor.Kind())
	if err != nil {
		return nil, err
	}
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	placement, err := options.Placement()
	if err != nil {
		return nil, err
	}
	if options.Order() != descriptor.Order() {
		return nil, fmt.Errorf("%s: descriptor order %v disagrees with colmajor=%v", descriptor.Name(), descriptor.Order(), options.ColumnMajor)
	}
	if options.Precision() != descriptor.Precision() {
		return nil, fmt.Errorf("%s: descriptor precision %v disagrees with realctype=%s", descriptor.Name(), descriptor.Precision(), options.RealCType)
	}
	adapter, err := execute.New(placement, environment.Runtime)
	if err != nil {
		return nil, err
	}

	logger := environment.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if environment.Binder == nil {
		environment.Binder = bindNative
	}
	return &Solver{
		descriptor:    descriptor,
		family:        f,
		platform:      options.Platform,
		placement:     placement,
		printRuleTree: options.PrintRuleTree,
		adapter:       adapter,
		environment:   environment,
		logger:        logger.With("transform", descriptor.Name()),
	}, nil
}

// JobFor returns the build job of descriptor's artifact under options
// without constructing a runnable solver. It needs no device runtime,
// so tools that only name, script, build or look up artifacts can
// target any resolved platform.
func JobFor(descriptor problem.Descriptor, options config.Options) (build.Job, error) {
	if descriptor.IsZero() {
		return build.Job{}, errors.New("job for a zero descriptor")
	}
	f, err := familyOf(descriptor.Kind())
	if err != nil {
		return build.Job{}, err
	}
	if _, err := options.Placement(); err != nil {
		return build.Job{}, err
	}
	s := &Solver{descriptor: descriptor, family: f, platform: options.Platform, printRuleTree: options.PrintRuleTree}
	return s.Job(), nil
}

func bindNative(path string, names metadata.Names, placement tensor.Placement) (BoundFunction, error) {
	return native.Bind(path, names, placement)
}

func (s *Solver) Descriptor() problem.Descriptor { return s.descriptor }
func (s *Solver) Name() string                   { return s.descriptor.Name() }
func (s *Solver) Platform() string               { return s.platform }
func (s *Solver) Placement() tensor.Placement    { return s.placement }

// Path is the artifact bound by the last successful [Solver.Bind], or
// empty.
func (s *Solver) Path() string { return s.path }

// Variant is the metadata entry an artifact for this solver carries.
func (s *Solver) Variant() metadata.Variant {
	variant := metadata.Variant{
		TransformType: s.family.transformType,
		Dimensions:    s.descriptor.Dimensions(),
		Precision:     s.descriptor.Precision().String(),
		Platform:      s.platform,
		Names:         metadata.NamesFor(s.Name()),
	}
	if !s.descriptor.Kind().IsConvolution() {
		variant.Direction = s.descriptor.Direction().String()
	}
	s.family.annotate(s.descriptor, &variant)
	return variant
}

// Query is the registry query that finds this solver's artifact.
func (s *Solver) Query() registry.Query {
	return registry.QueryFor(s.Variant())
}

// Script is the generator script that builds this solver's artifact.
func (s *Solver) Script() string {
	return script(s.family, s.descriptor, s.platform, s.printRuleTree)
}

// Job is the build job for this solver's artifact.
func (s *Solver) Job() build.Job {
	return build.Job{Name: s.Name(), Script: s.Script(), Variant: s.Variant()}
}

// SourceShape and DestinationShape are the logical operand shapes.
func (s *Solver) SourceShape() []int {
	source, _ := s.family.shapes(s.descriptor)
	return source
}

func (s *Solver) DestinationShape() []int {
	_, destination := s.family.shapes(s.descriptor)
	return destination
}

func (s *Solver) SourceType() tensor.DType {
	source, _ := s.family.types(s.descriptor)
	return source
}

func (s *Solver) DestinationType() tensor.DType {
	_, destination := s.family.types(s.descriptor)
	return destination
}

// SymbolShape is the packed kernel shape of a convolution, or nil.
func (s *Solver) SymbolShape() []int {
	packed, _ := s.family.symbol(s.descriptor)
	return packed
}

// Reference computes the expected output for source, and symbol for
// convolutions, on the host with the portable FFT engine. The result
// is normalized exactly as [Solver.Solve] normalizes artifact output.
func (s *Solver) Reference(source, symbol *tensor.Tensor) (*tensor.Tensor, error) {
	if err := s.checkSource(source, tensor.Host); err != nil {
		return nil, err
	}
	symbol, err := s.prepareSymbol(symbol, tensor.Host)
	if err != nil {
		return nil, err
	}
	var kernel []complex128
	if symbol != nil {
		kernel = symbol.ComplexValues()
	}

	values, err := s.family.reference(&s.plans, s.descriptor, source.ComplexValues(), kernel)
	if err != nil {
		return nil, fmt.Errorf("%s reference: %w", s.Name(), err)
	}
	result, err := tensor.FromComplexValues(s.DestinationShape(), s.descriptor.Order(), s.DestinationType(), values)
	if err != nil {
		return nil, fmt.Errorf("%s reference: %w", s.Name(), err)
	}
	if divisor := s.descriptor.Normalization(); divisor > 1 {
		result.Scale(divisor)
	}
	return result, nil
}

// Bind locates the artifact, building it when the resolver has none
// and a builder is configured, and loads its entry points. Binding
// twice is a no-op.
func (s *Solver) Bind(ctx context.Context) error {
	if s.bound != nil {
		return nil
	}

	path, names, err := s.locate(ctx)
	if err != nil {
		return err
	}
	bound, err := s.environment.Binder(path, names, s.placement)
	if err != nil {
		return fmt.Errorf("binding %s from %s: %w", names.Exec, path, err)
	}
	if bound.Placement() != s.placement {
		bound.Close()
		return &execute.PlacementMismatchError{Operand: "function", Have: bound.Placement(), Want: s.placement}
	}
	s.bound, s.path = bound, path
	s.logger.Debug("bound artifact", "path", path, "exec", names.Exec)
	return nil
}

func (s *Solver) locate(ctx context.Context) (string, metadata.Names, error) {
	query := s.Query()
	if s.environment.Resolver != nil {
		if match, ok := s.environment.Resolver.Resolve(query); ok {
			return match.Path, match.Names, nil
		}
	}
	if s.environment.Builder == nil {
		return "", metadata.Names{}, fmt.Errorf("%w for %v", registry.ErrNotFound, query)
	}

	s.logger.Info("no prebuilt artifact, building", "query", query.String())
	path, err := s.environment.Builder.Build(ctx, s.Job())
	if err != nil {
		return "", metadata.Names{}, fmt.Errorf("building %s: %w", s.Name(), err)
	}
	return path, metadata.NamesFor(s.Name()), nil
}

// Solve runs the artifact on source, and symbol for convolutions,
// which must already live on the solver's placement. The destination
// is allocated there too; release it with [Solver.Release]. Buffers
// on the wrong placement are rejected, never copied.
func (s *Solver) Solve(ctx context.Context, source, symbol *tensor.Tensor) (*tensor.Tensor, error) {
	if err := s.checkSource(source, s.placement); err != nil {
		return nil, err
	}
	symbol, err := s.prepareSymbol(symbol, s.placement)
	if err != nil {
		return nil, err
	}
	if err := s.Bind(ctx); err != nil {
		return nil, err
	}

	destination, err := s.adapter.Allocate(s.DestinationShape(), s.DestinationType(), s.descriptor.Order())
	if err != nil {
		return nil, err
	}
	call := execute.Call{
		Function:      s.bound,
		Destination:   destination,
		Source:        source,
		Order:         s.descriptor.Order(),
		Normalization: s.descriptor.Normalization(),
	}
	if symbol != nil {
		call.Auxiliary = []*tensor.Tensor{symbol}
	}
	if _, err := s.adapter.Invoke(call); err != nil {
		s.adapter.Release(destination)
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return destination, nil
}

// SolveHost runs the artifact on host tensors, staging them through
// device memory when the solver's placement is a device. The result
// is on the host.
func (s *Solver) SolveHost(ctx context.Context, source, symbol *tensor.Tensor) (*tensor.Tensor, error) {
	if err := s.checkSource(source, tensor.Host); err != nil {
		return nil, err
	}
	symbol, err := s.prepareSymbol(symbol, tensor.Host)
	if err != nil {
		return nil, err
	}
	if err := s.Bind(ctx); err != nil {
		return nil, err
	}

	request := execute.Request{
		Function:         s.bound,
		Source:           source,
		DestinationShape: s.DestinationShape(),
		DestinationType:  s.DestinationType(),
		Order:            s.descriptor.Order(),
		Normalization:    s.descriptor.Normalization(),
	}
	if symbol != nil {
		request.Auxiliary = []*tensor.Tensor{symbol}
	}
	result, err := s.adapter.Execute(request)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return result, nil
}

// Release frees a destination returned by [Solver.Solve].
func (s *Solver) Release(t *tensor.Tensor) error {
	return s.adapter.Release(t)
}

// Close unloads the bound artifact, if any.
func (s *Solver) Close() error {
	if s.bound == nil {
		return nil
	}
	bound := s.bound
	s.bound, s.path = nil, ""
	return bound.Close()
}

func (s *Solver) checkSource(source *tensor.Tensor, placement tensor.Placement) error {
	if source == nil {
		return fmt.Errorf("%s: nil source", s.Name())
	}
	if have := source.Placement(); have != placement {
		return &execute.PlacementMismatchError{Operand: "source", Have: have, Want: placement}
	}
	if want := s.SourceShape(); !slices.Equal(source.Shape(), want) {
		return fmt.Errorf("%s: source shape %v, want %v", s.Name(), source.Shape(), want)
	}
	if want := s.SourceType(); source.DType() != want {
		return fmt.Errorf("%s: source type %v, want %v", s.Name(), source.DType(), want)
	}
	if source.Rank() > 1 && source.Order() != s.descriptor.Order() {
		return &execute.LayoutMismatchError{Operand: "source", Have: source.Order(), Want: s.descriptor.Order()}
	}
	return nil
}

// prepareSymbol checks a convolution kernel and cuts a full host
// kernel down to its packed half. Families without a kernel accept
// only nil.
func (s *Solver) prepareSymbol(symbol *tensor.Tensor, placement tensor.Placement) (*tensor.Tensor, error) {
	packed, full := s.family.symbol(s.descriptor)
	if packed == nil {
		if symbol != nil {
			return nil, fmt.Errorf("%s takes no symbol", s.Name())
		}
		return nil, nil
	}
	if symbol == nil {
		return nil, fmt.Errorf("%s requires a symbol of shape %v", s.Name(), packed)
	}
	if have := symbol.Placement(); have != placement {
		return nil, &execute.PlacementMismatchError{Operand: "symbol", Have: have, Want: placement}
	}
	if want := s.descriptor.Precision().ComplexType(); symbol.DType() != want {
		return nil, fmt.Errorf("%s: symbol type %v, want %v", s.Name(), symbol.DType(), want)
	}

	switch {
	case slices.Equal(symbol.Shape(), packed):
		return symbol, nil
	case slices.Equal(symbol.Shape(), full) && symbol.Placement() == tensor.Host:
		values := fft.Extract(symbol.ComplexValues(), full, packed, make([]int, len(full)))
		return tensor.FromComplexValues(packed, tensor.RowMajor, symbol.DType(), values)
	case slices.Equal(symbol.Shape(), full):
		return nil, fmt.Errorf("%s: slice the full %v symbol on the host before moving it to %v", s.Name(), full, symbol.Placement())
	default:
		return nil, fmt.Errorf("%s: symbol shape %v, want %v or %v", s.Name(), symbol.Shape(), packed, full)
	}
}
