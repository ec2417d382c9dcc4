package kinematics

import (
	"fmt"
	"path"
)

// RootParent marks a joint with no parent in the arena.
const RootParent = -1

// Joint is one node of the skeletal hierarchy. Joints live in a flat arena
// addressed by index; Parent is an index into the same arena (RootParent for
// the root). No joint holds a pointer to another joint.
type Joint struct {
	Name   string
	Parent int
	// ZeroPose is the optional reference rotation used to re-express
	// relative rotations as offsets from a static calibration pose.
	ZeroPose    *Quat
	HasRotation bool
	HasPosition bool
}

// RegionBand is the admissible low-pass cutoff band for one anatomical
// region, in Hz. Distal segments move with wider bandwidth than the trunk,
// so every region carries its own band.
type RegionBand struct {
	Name string  `json:"name"`
	FMin float64 `json:"f_min_hz"`
	FMax float64 `json:"f_max_hz"`
}

// DefaultCutoff is the documented fallback used when the knee search fails
// for this band: the band midpoint.
func (b RegionBand) DefaultCutoff() float64 { return (b.FMin + b.FMax) / 2 }

// RegionRule maps a joint-name pattern (path.Match syntax, e.g. "*Hand*")
// to a region label. First matching rule wins.
type RegionRule struct {
	Pattern string
	Region  string
}

// Skeleton is the immutable per-recording description of the joint tree and
// its region partition. Build validates and assigns regions once; the
// structure is never mutated afterwards.
type Skeleton struct {
	Joints  []Joint
	Regions []RegionBand

	// RegionOf maps joint index to an index into Regions. Total: every
	// joint has exactly one region.
	RegionOf []int
}

// Build validates the joint arena against the region rules and bands and
// returns an immutable Skeleton. Every structural violation is a
// MalformedInputError; nothing is silently repaired.
func Build(joints []Joint, rules []RegionRule, bands []RegionBand) (*Skeleton, error) {
	if len(joints) == 0 {
		return nil, &MalformedInputError{Field: "joints", Reason: "empty joint list"}
	}
	if len(bands) == 0 {
		return nil, &MalformedInputError{Field: "regions", Reason: "no region bands defined"}
	}

	bandIndex := make(map[string]int, len(bands))
	for i, b := range bands {
		if b.Name == "" {
			return nil, &MalformedInputError{Field: "regions", Reason: fmt.Sprintf("band %d has empty name", i)}
		}
		if b.FMin <= 0 || b.FMax <= b.FMin {
			return nil, &MalformedInputError{
				Field:  "regions",
				Reason: fmt.Sprintf("band %q has invalid range [%g, %g] Hz", b.Name, b.FMin, b.FMax),
			}
		}
		if _, dup := bandIndex[b.Name]; dup {
			return nil, &MalformedInputError{Field: "regions", Reason: fmt.Sprintf("duplicate band %q", b.Name)}
		}
		bandIndex[b.Name] = i
	}

	names := make(map[string]int, len(joints))
	for i, j := range joints {
		if j.Name == "" {
			return nil, &MalformedInputError{Field: "joints", Reason: fmt.Sprintf("joint %d has empty name", i)}
		}
		if _, dup := names[j.Name]; dup {
			return nil, &MalformedInputError{Field: "joints", Reason: fmt.Sprintf("duplicate joint name %q", j.Name)}
		}
		names[j.Name] = i
		if j.Parent != RootParent && (j.Parent < 0 || j.Parent >= len(joints)) {
			return nil, &MalformedInputError{
				Field:  "joints",
				Reason: fmt.Sprintf("joint %q parent index %d out of range", j.Name, j.Parent),
			}
		}
		if j.Parent == i {
			return nil, &MalformedInputError{Field: "joints", Reason: fmt.Sprintf("joint %q is its own parent", j.Name)}
		}
	}

	if err := checkAcyclic(joints); err != nil {
		return nil, err
	}

	regionOf := make([]int, len(joints))
	for i, j := range joints {
		region, err := matchRegion(j.Name, rules)
		if err != nil {
			return nil, err
		}
		bi, ok := bandIndex[region]
		if !ok {
			return nil, &MalformedInputError{
				Field:  "regions",
				Reason: fmt.Sprintf("joint %q maps to unknown region %q", j.Name, region),
			}
		}
		regionOf[i] = bi
	}

	return &Skeleton{Joints: joints, Regions: bands, RegionOf: regionOf}, nil
}

// matchRegion returns the region label for a joint name, requiring exactly
// one rule to match. Rules are evaluated in order; first match wins, so the
// totality requirement is "at least one rule matches".
func matchRegion(name string, rules []RegionRule) (string, error) {
	for _, r := range rules {
		ok, err := path.Match(r.Pattern, name)
		if err != nil {
			return "", &MalformedInputError{
				Field:  "regions",
				Reason: fmt.Sprintf("bad pattern %q: %v", r.Pattern, err),
			}
		}
		if ok {
			return r.Region, nil
		}
	}
	return "", &MalformedInputError{
		Field:  "regions",
		Reason: fmt.Sprintf("joint %q matches no region rule", name),
	}
}

// checkAcyclic walks parent chains; with self-parents already rejected, any
// chain longer than the arena implies a cycle.
func checkAcyclic(joints []Joint) error {
	for i := range joints {
		seen := 0
		for p := joints[i].Parent; p != RootParent; p = joints[p].Parent {
			seen++
			if seen > len(joints) {
				return &MalformedInputError{
					Field:  "joints",
					Reason: fmt.Sprintf("cycle in parent chain starting at joint %q", joints[i].Name),
				}
			}
		}
	}
	return nil
}

// JointIndex returns the arena index for a joint name, or -1.
func (s *Skeleton) JointIndex(name string) int {
	for i, j := range s.Joints {
		if j.Name == name {
			return i
		}
	}
	return -1
}

// Region returns the band assigned to joint index i.
func (s *Skeleton) Region(i int) RegionBand { return s.Regions[s.RegionOf[i]] }

// JointsInRegion returns the arena indices assigned to the given region
// band index, in arena order.
func (s *Skeleton) JointsInRegion(band int) []int {
	var out []int
	for i, r := range s.RegionOf {
		if r == band {
			out = append(out, i)
		}
	}
	return out
}
