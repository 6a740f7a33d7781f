/*
Package rvcfg parses Real Virtuality config text (config.cpp, cfgWorlds and
similar definition files) into an ordered tree.

The grammar covers classes with an optional parent tag, scalar string,
boolean and numeric assignments, and array literals:

	class CfgWorlds
	{
	    class ChernarusPlus : CAWorld
	    {
	        description = "Chernarus";
	        centerPosition[] = {7680, 7680, 300};
	        class Names
	        {
	            class Settlement_Chernogorsk
	            {
	                name = "Chernogorsk";
	                position[] = {6650.2, 2460.7};
	            };
	        };
	    };
	};

Statements are read line by line; class bodies and array literals are
located by brace matching and may span many lines. Lines that match no
statement are skipped and reported as diagnostics. Expressions, macros and
inheritance are not evaluated: a parent class name is recorded in
Node.Parent and nothing is merged.

Two string forms exist. Scalar strings are taken verbatim up to the last
`";` on the line, so doubled quotes stay doubled unless
ParseOptions.UnescapeQuotes is set. Array elements are decoded as JSON
strings.

Reader example:

	root, err := rvcfg.DecodeFile("config.cpp", nil)
	if err != nil {
		// handle error
	}
	worlds, _ := root.Class("CfgWorlds")
	world, _ := worlds.Class("chernarusplus")
	center, _ := world.Vec2("centerPosition")

Diagnostics example:

	doc, err := rvcfg.ParseDocument(data, &rvcfg.ParseOptions{Logger: log})
	if err != nil {
		// handle error
	}
	for _, it := range doc.Warnings() {
		log.Warn(it.String())
	}

Writer example:

	out, err := rvcfg.Format(root, nil)
	if err != nil {
		// handle error
	}
*/
package rvcfg
