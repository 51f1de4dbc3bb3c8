/*
Package sff implements a reader for Elecbyte SFF sprite containers
(versions 1.x and 2.x) as used by MUGEN-style fighting game engines.

An SFF file stores a directory of sprites and, in version 2, a table of
256-color palettes. Version 1 sprites are PCX blocks that carry their own
palette; version 2 sprites are raw, RLE8, RLE5, LZ5 or PNG compressed and
reference the shared palette table. Directory entries with no data link
to an earlier sprite.

The package focuses on practical workflows: load a file into raw pixel
buffers and palette tables for a renderer, view sprites as images, export
them as PNG/ACT/DDS and keep an LZ4 compressed snapshot of a decoded file.
*/
package sff
