package domain

import (
	"encoding/json"
	"fmt"
)

type BlockType string

const (
	BlockTypeColumns BlockType = "columns"
	BlockTypeWrapper BlockType = "wrapper"
)

// MaxColumns is the largest column count a columns row can be created with.
const MaxColumns = 4

// CanvasBlock is a top-level row of the template canvas. A columns row uses
// Alignment and Columns; a wrapper row uses Height, Styles and Blocks.
type CanvasBlock struct {
	ID        string         `json:"id"`
	Type      BlockType      `json:"type"`
	Alignment float64        `json:"alignment,omitempty"`
	Columns   []Column       `json:"columns,omitempty"`
	Height    float64        `json:"height,omitempty"`
	Styles    *WrapperStyles `json:"styles,omitempty"`
	Blocks    []Primitive    `json:"blocks,omitempty"` // z-ordered, last is in front
}

// Column is one cell of a columns row. Widths of sibling columns sum to 100.
type Column struct {
	ID     string        `json:"id"`
	Width  float64       `json:"width"`
	Blocks []Primitive   `json:"blocks"`
	Styles *ColumnStyles `json:"styles,omitempty"`
}

type ColumnStyles struct {
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	BorderRadius    float64 `json:"borderRadius,omitempty"`
}

type WrapperStyles struct {
	BackgroundColor string  `json:"backgroundColor"`
	BorderRadius    float64 `json:"borderRadius"`
	BackgroundImage string  `json:"backgroundImage,omitempty"`
}

// Tree is the full ordered canvas, the unit of history snapshots and persistence.
type Tree = []CanvasBlock

func (b *CanvasBlock) UnmarshalJSON(data []byte) error {
	type alias CanvasBlock
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	switch a.Type {
	case BlockTypeColumns:
		for i := range a.Columns {
			if a.Columns[i].Blocks == nil {
				a.Columns[i].Blocks = []Primitive{}
			}
		}
	case BlockTypeWrapper:
		// An empty wrapper encodes without "blocks"; decode it as it was built.
		if a.Blocks == nil {
			a.Blocks = []Primitive{}
		}
	default:
		return fmt.Errorf("unknown canvas block type %q", a.Type)
	}
	*b = CanvasBlock(a)
	return nil
}

// FindBlock returns the index of the row with the given id, or -1.
func FindBlock(tree []CanvasBlock, id string) int {
	for i := range tree {
		if tree[i].ID == id {
			return i
		}
	}
	return -1
}

// FindColumn returns the index of the column with the given id, or -1.
func (b CanvasBlock) FindColumn(id string) int {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

// FindPrimitive returns the index of the primitive with the given id, or -1.
func FindPrimitive(blocks []Primitive, id string) int {
	for i := range blocks {
		if blocks[i].ID == id {
			return i
		}
	}
	return -1
}
