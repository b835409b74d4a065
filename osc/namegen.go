package osc

import (
	"math/rand/v2"
	"strconv"
)

// Docker-style word lists (Moby project convention) used to auto-name a
// card when "run" omits --name, mirroring name-generator.cpp's
// adjective_scientist scheme ("happy_turing").
var nameAdjectives = []string{
	"admiring", "amazing", "blissful", "bold", "brave", "clever", "cool",
	"eager", "elastic", "elegant", "epic", "festive", "focused", "friendly",
	"gallant", "gifted", "happy", "jolly", "jovial", "keen", "kind",
	"laughing", "loving", "lucid", "musing", "nice", "nifty", "nostalgic",
	"peaceful", "practical", "quirky", "relaxed", "serene", "sharp",
	"silly", "sleepy", "stoic", "suspicious", "sweet", "tender", "trusting",
	"vibrant", "vigilant", "wizardly", "zealous", "zen",
}

var nameNouns = []string{
	"babbage", "bohr", "booth", "borg", "curie", "darwin", "edison",
	"einstein", "euclid", "euler", "faraday", "feynman", "franklin",
	"galileo", "gauss", "goodall", "hawking", "hertz", "hopper", "hypatia",
	"kepler", "lamarr", "lovelace", "maxwell", "mendel", "newton",
	"noether", "pascal", "pasteur", "ritchie", "shannon", "tesla",
	"thompson", "turing", "volta", "wozniak",
}

// generateName returns a random "adjective_noun" name, re-rolling against
// known on collision and appending a digit once it has to retry, for
// uniqueness under a large card count — the same shape as
// NameGenerator::generate(retry) in the original.
func generateName(known map[string]bool) string {
	for retry := 0; ; retry++ {
		name := nameAdjectives[rand.IntN(len(nameAdjectives))] + "_" + nameNouns[rand.IntN(len(nameNouns))]
		if retry > 0 {
			name += strconv.Itoa(rand.IntN(10))
		}
		if !known[name] {
			return name
		}
	}
}
