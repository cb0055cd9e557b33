// Package config holds the runtime settings of phatnguoi: defaults, the
// optional .phatnguoi YAML file and validation of the merged result.
package config
