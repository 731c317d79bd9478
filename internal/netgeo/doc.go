// Package netgeo talks to a NetGeo lookup server.
//
// A NetGeo server answers GET requests of the form
//
//	<server>?method=getRecord&target=caida.org
//
// with a banner followed by line-oriented record data:
//
//	TARGET: caida.org<br>
//	NAME: UCSD<br>
//	COUNTRY: US<br>
//	LAT: 32.88<br>
//	LONG: -117.24<br>
//	LAT_LONG_GRAN: City<br>
//	STATUS: OK<br>
//
// Client fetches the raw reply and Parse turns it into a record.Record.
package netgeo
