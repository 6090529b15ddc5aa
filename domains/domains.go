// Package domains provides ready-made constrained primitive classes for
// identifiers, file names, network ports, percentages, money and versions.
package domains

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	ts "github.com/reoring/typesafe"
)

// Module is the module name every class in this package is declared under.
const Module = "domains"

// Identifiers and names.
var (
	// SafeID keeps letters, digits, '_' and '-'.
	SafeID = ts.NewStrClass(Module, "SafeID", ts.StrConstraint{
		MaxLength:      512,
		AllowEmpty:     true,
		TrimWhitespace: true,
		Regex:          regexp.MustCompile(`[^a-zA-Z0-9_\-]`),
	})

	// Slug is a lower-case URL path segment; runs of other characters become '-'.
	Slug = ts.NewStrClass(Module, "Slug", ts.StrConstraint{
		MaxLength:       64,
		AllowEmpty:      true,
		TrimWhitespace:  true,
		ToLowerCase:     true,
		Regex:           regexp.MustCompile(`[^a-z0-9\-]+`),
		ReplacementChar: "-",
	})

	// FileName keeps characters that are safe on common file systems.
	FileName = ts.NewStrClass(Module, "FileName", ts.StrConstraint{
		MaxLength:      255,
		AllowEmpty:     true,
		TrimWhitespace: true,
		Regex:          regexp.MustCompile(`[^a-zA-Z0-9_\-. ]`),
		Check:          checkFileName,
	})

	// Key is a lower-case cache or storage key.
	Key = ts.NewStrClass(Module, "Key", ts.StrConstraint{
		MaxLength:   256,
		AllowEmpty:  true,
		ToLowerCase: true,
		Regex:       regexp.MustCompile(`[^a-z0-9_\-.:]`),
	})

	// RandomGUID holds a canonical UUID; each default is a fresh random one.
	RandomGUID = ts.NewStrClass(Module, "RandomGUID", ts.StrConstraint{
		MaxLength:   36,
		ExactLength: true,
		ToLowerCase: true,
		Regex:       regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`),
		Mode:        ts.RegexMatch,
		Check:       checkGUID,
		DefaultFunc: uuid.NewString,
	})

	// Version is a semantic version with an optional leading 'v'.
	Version = ts.NewStrClass(Module, "Version", ts.StrConstraint{
		MaxLength:      128,
		TrimWhitespace: true,
		Regex:          regexp.MustCompile(`v?[0-9]+\.[0-9]+\.[0-9]+(?:-[0-9A-Za-z.\-]+)?(?:\+[0-9A-Za-z.\-]+)?`),
		Mode:           ts.RegexMatch,
		Check:          checkVersion,
		Default:        "v0.0.0",
	})
)

// Numbers.
var (
	// UInt is a non-negative integer.
	UInt = ts.SafeInt.Derive(Module, "UInt", func(c *ts.IntConstraint) {
		c.Min = ts.Ptr[int64](0)
	})

	// Port is a TCP/UDP port number.
	Port = UInt.Derive(Module, "Port", func(c *ts.IntConstraint) {
		c.Max = ts.Ptr[int64](65535)
		c.AllowNone = false
	})

	// Percentage is a value in [0, 100] with two decimals.
	Percentage = ts.SafeFloat.Derive(Module, "Percentage", func(c *ts.FloatConstraint) {
		c.Min = ts.Ptr(0.0)
		c.Max = ts.Ptr(100.0)
		c.DecimalPlaces = 2
		c.RoundOutput = true
	})

	// Money is exact to the cent; arithmetic runs in decimal.
	Money = ts.SafeFloat.Derive(Module, "Money", func(c *ts.FloatConstraint) {
		c.DecimalPlaces = 2
		c.RoundOutput = true
		c.UseDecimal = true
		c.Epsilon = 0.005
	})

	// Temperature is in degrees Celsius and cannot go below absolute zero.
	Temperature = ts.SafeFloat.Derive(Module, "Temperature", func(c *ts.FloatConstraint) {
		c.Min = ts.Ptr(-273.15)
		c.DecimalPlaces = 2
		c.RoundOutput = true
	})
)

// All lists every class declared in this package.
func All() []ts.PrimitiveClass {
	return []ts.PrimitiveClass{
		SafeID, Slug, FileName, Key, RandomGUID, Version,
		UInt, Port, Percentage, Money, Temperature,
	}
}

// Register adds every class to reg so forward references and type
// expressions such as "domains.Port" resolve.
func Register(reg *ts.Registry) {
	for _, c := range All() {
		reg.Register(c)
	}
}

// ByName returns the class with the given short name.
func ByName(name string) (ts.PrimitiveClass, bool) {
	for _, c := range All() {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

func checkFileName(s string) error {
	if s == "." || s == ".." {
		return fmt.Errorf("'%s' is not a valid file name", s)
	}
	return nil
}

func checkGUID(s string) error {
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("invalid GUID: %w", err)
	}
	return nil
}

func checkVersion(s string) error {
	if _, err := semver.StrictNewVersion(strings.TrimPrefix(s, "v")); err != nil {
		return fmt.Errorf("invalid version '%s': %w", s, err)
	}
	return nil
}

// ParseVersion returns the semantic version held by v.
func ParseVersion(v ts.StrValue) (*semver.Version, error) {
	return semver.NewVersion(v.String())
}

// Satisfies reports whether v meets a constraint such as ">= 1.2, < 2".
func Satisfies(v ts.StrValue, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}
	sv, err := ParseVersion(v)
	if err != nil {
		return false, err
	}
	return c.Check(sv), nil
}

// CompareVersions orders two versions: -1, 0 or 1.
func CompareVersions(a, b ts.StrValue) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// NewGUID returns a fresh RandomGUID value.
func NewGUID() ts.StrValue { return RandomGUID.MustNew(uuid.NewString()) }
