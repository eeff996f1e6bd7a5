package domain

import (
	"errors"
	"fmt"
)

// Reference is the location hierarchy and coordinate tables behind a
// [Resolver]. Build one with [DefaultReference] or by hand in tests; the
// resolver takes a private copy, so later edits to a Reference never leak
// into a running resolver.
type Reference struct {
	// States in display order.
	States []string
	// Districts maps a state to its districts in display order.
	Districts map[string][]string
	// Reserves maps a district to its reserves in display order.
	Reserves map[string][]string

	ReserveCoords  map[string]Coordinate
	DistrictCoords map[string]Coordinate
	StateCentroids map[string]Coordinate
}

// DefaultReference returns the built-in dataset: every state, district, and
// reserve present in the model's training data.
func DefaultReference() Reference {
	return Reference{
		States: []string{
			"Assam",
			"Gujarat",
			"Karnataka",
			"Kerala",
			"Madhya Pradesh",
			"Maharashtra",
			"Odisha",
			"Rajasthan",
			"Tamil Nadu",
			"Uttar Pradesh",
			"Uttarakhand",
			"West Bengal",
		},
		Districts: map[string][]string{
			"Assam":          {"Baksa", "Golaghat", "Udalguri"},
			"Gujarat":        {"Junagadh"},
			"Karnataka":      {"Chamarajanagar", "Mysuru"},
			"Kerala":         {"Idukki", "Palakkad", "Wayanad"},
			"Madhya Pradesh": {"Mandla", "Narmadapuram", "Umaria"},
			"Maharashtra":    {"Amravati", "Chandrapur", "Nagpur"},
			"Odisha":         {"Mayurbhanj"},
			"Rajasthan":      {"Sawai Madhopur"},
			"Tamil Nadu":     {"Coimbatore", "Nilgiris", "Tirunelveli"},
			"Uttar Pradesh":  {"Lakhimpur Kheri"},
			"Uttarakhand":    {"Nainital"},
			"West Bengal":    {"Alipurduar", "South 24 Parganas"},
		},
		Reserves: map[string][]string{
			"Baksa":    {"Manas"},
			"Golaghat": {"Kaziranga"},
			"Udalguri": {"Orang"},

			"Junagadh": {"Gir"},

			"Chamarajanagar": {"BRT", "Bandipur"},
			"Mysuru":         {"Nagarhole"},

			"Idukki":   {"Periyar"},
			"Palakkad": {"Silent Valley"},
			"Wayanad":  {"Wayanad"},

			"Mandla":       {"Kanha"},
			"Narmadapuram": {"Satpura"},
			"Umaria":       {"Bandhavgarh"},

			"Amravati":   {"Melghat"},
			"Chandrapur": {"Tadoba-Andhari"},
			"Nagpur":     {"Pench MH"},

			"Mayurbhanj": {"Similipal"},

			"Sawai Madhopur": {"Ranthambore"},

			"Coimbatore":  {"Anamalai"},
			"Nilgiris":    {"Mudumalai"},
			"Tirunelveli": {"Kalakad-Mundanthurai"},

			"Lakhimpur Kheri": {"Dudhwa"},

			"Nainital": {"Corbett"},

			"Alipurduar":        {"Buxa"},
			"South 24 Parganas": {"Sundarbans"},
		},
		ReserveCoords: map[string]Coordinate{
			"Manas":     {26.7191, 91.0256},
			"Kaziranga": {26.5775, 93.1711},
			"Orang":     {26.567, 92.3315},

			"Gir": {21.124, 70.824},

			"BRT":       {11.909297, 77.000465},
			"Bandipur":  {11.7788, 76.4647},
			"Nagarhole": {12.000201, 76.09996},

			"Periyar":       {9.462, 77.241},
			"Silent Valley": {11.130749, 76.425043},
			"Wayanad":       {11.685663, 76.132093},

			"Kanha":       {22.334019, 80.610875},
			"Satpura":     {22.46306, 78.433226},
			"Bandhavgarh": {23.685746, 81.038788},

			"Melghat":        {21.396263, 77.150086},
			"Tadoba-Andhari": {20.196831, 79.300862},
			"Pench MH":       {21.708546, 79.329603},

			"Similipal":   {21.949817, 86.35033},
			"Ranthambore": {26.017381, 76.502589},

			"Anamalai":             {10.393541, 77.003039},
			"Mudumalai":            {11.599667, 76.499971},
			"Kalakad-Mundanthurai": {8.530356, 77.399954},

			"Dudhwa":  {28.500381, 80.570073},
			"Corbett": {29.530173, 78.775423},

			"Buxa":       {26.719749, 89.559893},
			"Sundarbans": {21.949722, 88.74679},
		},
		DistrictCoords: map[string]Coordinate{
			"Baksa":    {26.7191, 91.0256},
			"Golaghat": {26.5775, 93.1711},
			"Udalguri": {26.567, 92.3315},

			"Junagadh": {21.124, 70.824},

			"Chamarajanagar": {11.6544, 76.6295},
			"Mysuru":         {12.0, 76.1},

			"Idukki":   {9.462, 77.241},
			"Palakkad": {11.131, 76.425},
			"Wayanad":  {11.6854, 76.132},

			"Mandla":       {22.3345, 80.6115},
			"Narmadapuram": {22.463, 78.433},
			"Umaria":       {23.685, 81.04},

			"Amravati":   {21.396, 77.15},
			"Chandrapur": {20.197, 79.301},
			"Nagpur":     {21.708, 79.33},

			"Mayurbhanj": {21.95, 86.35},

			"Sawai Madhopur": {26.0173, 76.5026},

			"Coimbatore":  {10.396, 77.002},
			"Nilgiris":    {11.6, 76.5},
			"Tirunelveli": {8.53, 77.4},

			"Lakhimpur Kheri": {28.5, 80.57},

			"Nainital": {29.53, 78.7747},

			"Alipurduar":        {26.72, 89.56},
			"South 24 Parganas": {21.9497, 88.7468},
		},
		StateCentroids: map[string]Coordinate{
			"Assam":          {26.6212, 92.1761},
			"Gujarat":        {21.124, 70.824},
			"Karnataka":      {11.8272, 76.3648},
			"Kerala":         {10.7595, 76.5993},
			"Madhya Pradesh": {22.8275, 80.0282},
			"Maharashtra":    {21.1003, 78.5937},
			"Odisha":         {21.95, 86.35},
			"Rajasthan":      {26.0173, 76.5026},
			"Tamil Nadu":     {10.1753, 76.9673},
			"Uttar Pradesh":  {28.5, 80.57},
			"Uttarakhand":    {29.53, 78.7747},
			"West Bengal":    {24.3348, 89.1534},
		},
	}
}

// Validate checks the hierarchy and coordinate invariants and returns every
// violation found, joined. A nil result means the reference is consistent.
func (ref Reference) Validate() error {
	var errs []error

	seenStates := make(map[string]bool, len(ref.States))
	owner := make(map[string]string)
	for _, state := range ref.States {
		if state == "" {
			errs = append(errs, errors.New("empty state name"))
			continue
		}
		if seenStates[state] {
			errs = append(errs, fmt.Errorf("state %q listed twice", state))
		}
		seenStates[state] = true

		c, ok := ref.StateCentroids[state]
		if !ok {
			errs = append(errs, fmt.Errorf("state %q has no centroid", state))
		} else if !c.Valid() {
			errs = append(errs, fmt.Errorf("state %q centroid %v out of range", state, c))
		}

		districts, ok := ref.Districts[state]
		if !ok || len(districts) == 0 {
			errs = append(errs, fmt.Errorf("state %q has no districts", state))
		}
		for _, district := range districts {
			if prev, dup := owner[district]; dup {
				errs = append(errs, fmt.Errorf("district %q listed under both %q and %q", district, prev, state))
				continue
			}
			owner[district] = state
			errs = append(errs, ref.validateDistrict(district)...)
		}
	}

	for state := range ref.Districts {
		if !seenStates[state] {
			errs = append(errs, fmt.Errorf("districts listed for unknown state %q", state))
		}
	}
	for name, c := range ref.ReserveCoords {
		if !c.Valid() {
			errs = append(errs, fmt.Errorf("reserve %q coordinate %v out of range", name, c))
		}
	}

	return errors.Join(errs...)
}

func (ref Reference) validateDistrict(district string) []error {
	var errs []error

	c, ok := ref.DistrictCoords[district]
	if !ok {
		errs = append(errs, fmt.Errorf("district %q has no coordinate", district))
	} else if !c.Valid() {
		errs = append(errs, fmt.Errorf("district %q coordinate %v out of range", district, c))
	}

	seen := make(map[string]bool)
	for _, reserve := range ref.Reserves[district] {
		if reserve == "" || reserve == NoReserve {
			errs = append(errs, fmt.Errorf("district %q lists reserve %q", district, reserve))
			continue
		}
		if seen[reserve] {
			errs = append(errs, fmt.Errorf("district %q lists reserve %q twice", district, reserve))
		}
		seen[reserve] = true
		if _, ok := ref.ReserveCoords[reserve]; !ok {
			errs = append(errs, fmt.Errorf("reserve %q has no coordinate", reserve))
		}
	}
	return errs
}

// clone returns a deep copy so a resolver never shares slices or maps with
// its caller.
func (ref Reference) clone() Reference {
	out := Reference{
		States:         append([]string(nil), ref.States...),
		Districts:      make(map[string][]string, len(ref.Districts)),
		Reserves:       make(map[string][]string, len(ref.Reserves)),
		ReserveCoords:  make(map[string]Coordinate, len(ref.ReserveCoords)),
		DistrictCoords: make(map[string]Coordinate, len(ref.DistrictCoords)),
		StateCentroids: make(map[string]Coordinate, len(ref.StateCentroids)),
	}
	for k, v := range ref.Districts {
		out.Districts[k] = append([]string(nil), v...)
	}
	for k, v := range ref.Reserves {
		out.Reserves[k] = append([]string(nil), v...)
	}
	for k, v := range ref.ReserveCoords {
		out.ReserveCoords[k] = v
	}
	for k, v := range ref.DistrictCoords {
		out.DistrictCoords[k] = v
	}
	for k, v := range ref.StateCentroids {
		out.StateCentroids[k] = v
	}
	return out
}
