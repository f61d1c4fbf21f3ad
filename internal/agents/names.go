package agents

// Name pools for procedural generation.
var maleNames = []string{
	"Abel", "Bastian", "Casper", "Dmitri", "Elias", "Felix", "Gideon",
	"Henrik", "Isak", "Jonas", "Kasimir", "Lukas", "Matteo", "Noah",
	"Oskar", "Pavel", "Rafael", "Samuel", "Tobias", "Viktor", "Willem",
}

var femaleNames = []string{
	"Alma", "Beatrix", "Clara", "Dora", "Edith", "Frida", "Hanna",
	"Ida", "Jana", "Klara", "Liv", "Marta", "Nora", "Ottilie",
	"Paula", "Rosa", "Sofia", "Tilda", "Ulla", "Vilma", "Zoe",
}

var lastNames = []string{
	"Abbott", "Barlow", "Carver", "Dalton", "Ellery", "Fenwick", "Garner",
	"Hale", "Ingram", "Jessop", "Keller", "Lowell", "Marsh", "Nolan",
	"Orton", "Pryce", "Quill", "Rooke", "Sutton", "Tanner", "Vane", "Whitlock",
}
