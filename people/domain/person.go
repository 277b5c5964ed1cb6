package domain

import (
	"encoding/json"
	"fmt"
)

// Person is one entry in the collection: a label and the filename of its photo.
// The photo itself lives in the ImageRepository.
type Person struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// NewPerson creates a Person. No validation is done on name; empty and
// duplicate names are allowed.
func NewPerson(name, image string) Person {
	return Person{
		Name:  name,
		Image: image,
	}
}

// EncodePeople serializes the whole collection. A nil slice encodes as an empty array.
func EncodePeople(people []Person) ([]byte, error) {
	if people == nil {
		people = []Person{}
	}

	data, err := json.Marshal(people)
	if err != nil {
		return nil, fmt.Errorf("failed to encode people: %w", err)
	}
	return data, nil
}

// DecodePeople is the inverse of EncodePeople.
func DecodePeople(data []byte) ([]Person, error) {
	var people []Person
	if err := json.Unmarshal(data, &people); err != nil {
		return nil, fmt.Errorf("failed to decode people: %w", err)
	}
	if people == nil {
		people = []Person{}
	}
	return people, nil
}
