// Package testsupport provides shared fixtures for package tests.
package testsupport
