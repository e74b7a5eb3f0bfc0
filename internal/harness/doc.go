// Package harness replays simulated shell sessions against the resolver
// and the differ.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: autoreload_session
//	description: "Edited files are reloaded on the next prompt"
//	autoreload: true
//	files:
//	  /home/user/.cdenv.sh: 100
//	  /home/user/src/.cdenv.sh: 100
//	steps:
//	  - cd: /home/user/src
//	    expect:
//	      load: [/home/user, /home/user/src]
//	  - touch: [/home/user/src/.cdenv.sh]
//	    cd: /home/user/src
//	    expect:
//	      changed: [/home/user/src]
//	  - compare:
//	      before: |
//	        declare -- FOO="1"
//	      after: |
//	        declare -- FOO="2"
//	    expect:
//	      report: ["modify FOO"]
//
// Expected paths may name a directory instead of its marker file.
//
// # Deterministic Testing
//
// Files live in a testutil.MemFS whose logical clock stamps touched files
// with increasing modification times, so transcripts are identical across
// runs and can be compared against golden files.
package harness
