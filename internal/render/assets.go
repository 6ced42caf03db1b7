package render

import "github.com/tomz197/invaders/internal/draw"

// Sprite is a pixel-art grid. Each byte of a row selects a palette entry;
// '.' is transparent.
type Sprite struct {
	Rows    []string
	Palette map[byte]draw.Color
}

// Scene colours.
var (
	backgroundColor = draw.Hex(0x0c0b1d)
	bulletColor     = draw.Hex(0xfffc58)
	bossGlowColor   = draw.Hex(0x00ff00)
	healthBarBg     = draw.Hex(0x333333)
)

var (
	starColors = [...]draw.Color{
		draw.Hex(0xffffff),
		draw.Hex(0xbc4a9b),
		draw.Hex(0x24e5ff),
		draw.Hex(0xffeb65),
	}
	starSizes = [...]float64{2, 4, 6, 8}
)

// Pixel sizes in world units.
const (
	playerPixelSize = 5.0
	bossPixelSize   = 15.0
)

var playerSprite = Sprite{
	Rows: []string{
		"..AAAAA..",
		".ABBBBBA.",
		"ABCDEDCBA",
		"ABDEFEDBA",
		"ABDDEDDBA",
		"ABCDDDCBA",
		".ABBBBBA.",
		".AHAHAHA.",
		"AGAGAGAGA",
	},
	Palette: map[byte]draw.Color{
		'A': draw.Hex(0x000000),
		'B': draw.Hex(0x4b2d83),
		'C': draw.Hex(0x6b3fa3),
		'D': draw.Hex(0x55dd00),
		'E': draw.Hex(0xffffff),
		'F': draw.Hex(0x000000),
		'G': draw.Hex(0x33aa33),
		'H': draw.Hex(0x88ff00),
	},
}

func monsterSprite(color uint32, rows ...string) Sprite {
	return Sprite{Rows: rows, Palette: map[byte]draw.Color{'A': draw.Hex(color)}}
}

// monsterSprites is indexed by design modulo its length.
var monsterSprites = []Sprite{
	monsterSprite(0xff0000,
		".AAAAAA.",
		"AAAAAAAA",
		"AAAAAAAA",
		"A.AAAA.A",
		"AAAAAAAA",
		".AA..AA.",
		"A.A..A.A",
	),
	monsterSprite(0x0000ff,
		"...AA...",
		"..AAAA..",
		".AAAAAA.",
		"AA.AA.AA",
		"AAAAAAAA",
		"A.A..A.A",
		"..A..A..",
	),
	monsterSprite(0x00ff00,
		".A....A.",
		"..AAAA..",
		"AAAAAAAA",
		"AAAAAAAA",
		".AAAAAA.",
		".A....A.",
		"A......A",
	),
	monsterSprite(0x00ffff,
		"...AA...",
		"..AAAA..",
		".AAAAAA.",
		"AAAAAAAA",
		"AAAAAAAA",
		"A.A..A.A",
	),
	monsterSprite(0xff00ff,
		"..A..A..",
		"...AA...",
		"..AAAA..",
		"AAAAAAAA",
		"AAAAAAAA",
		".A.AA.A.",
		"A......A",
	),
	monsterSprite(0xffff00,
		"...AA...",
		"..AAAA..",
		".AAAAAA.",
		"AAAAAAAA",
		"AAAAAAAA",
		"AA....AA",
		"..A..A..",
	),
	monsterSprite(0xffa500,
		"..A..A..",
		".AA..AA.",
		"AAAAAAAA",
		"AAAAAAAA",
		"AAAAAAAA",
		"...AA...",
		"..A..A..",
	),
}

var bossSprite = Sprite{
	Rows: []string{
		"..AA........AA..",
		"..AA........AA..",
		"....AAAAAAAA....",
		"..AAAAAAAAAAAA..",
		"AAAAAAABABAAAAAA",
		"AAAAAAAAAAAAAAAA",
		"AAAAAAAAAAAAAAAA",
		"..AAAAAAAAAAAA..",
		"AAA..AA..AA..AAA",
	},
	Palette: map[byte]draw.Color{
		'A': draw.Hex(0x00aa00),
		'B': draw.Hex(0xffffff),
	},
}

// Boss eye cells, as (column, row) in bossSprite.
var bossEyes = [...][2]int{{7, 4}, {9, 4}}
