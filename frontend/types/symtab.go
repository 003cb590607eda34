package types

import (
	"fmt"

	"github.com/benbjohnson/immutable"
)

// Symtab holds the predefined classes the type algebra relies on, plus the
// root Arena where every class is entered.
type Symtab struct {
	Object       *ClassSymbol
	String       *ClassSymbol
	Serializable *ClassSymbol
	Cloneable    *ClassSymbol
	Comparable   *ClassSymbol
	Number       *ClassSymbol
	Integer      *ClassSymbol
	Long         *ClassSymbol
	Double       *ClassSymbol
	Float        *ClassSymbol
	Short        *ClassSymbol
	Byte         *ClassSymbol
	Boolean      *ClassSymbol
	Character    *ClassSymbol
	Void         *ClassSymbol
	Throwable    *ClassSymbol

	ObjectType *ClassType
	StringType *ClassType

	root *Arena
}

// Arena is a layer of class declarations.
//
// Forking an Arena is O(1): the child shares the parent's entries and
// whatever gets entered into the child is not visible to the parent.
// Dropping the child is all it takes to forget its declarations.
type Arena struct {
	syms    *Symtab
	classes *immutable.Map[string, *ClassSymbol]
	depth   int
}

func (a *Arena) Symtab() *Symtab { return a.syms }

// Fork returns a child arena which sees every class entered so far
func (a *Arena) Fork() *Arena {
	return &Arena{syms: a.syms, classes: a.classes, depth: a.depth + 1}
}

// Depth is 0 for the root arena, and one more than its parent for every fork
func (a *Arena) Depth() int { return a.depth }

func (a *Arena) Lookup(name string) (*ClassSymbol, bool) {
	return a.classes.Get(name)
}

// Enter adds c to this arena, shadowing any class with the same name
func (a *Arena) Enter(c *ClassSymbol) {
	a.classes = a.classes.Set(c.Name, c)
}

func (a *Arena) Len() int { return a.classes.Len() }

// Contains reports whether c itself, not just a class with the same name, is visible in a
func (a *Arena) Contains(c *ClassSymbol) bool {
	found, ok := a.classes.Get(c.Name)
	return ok && found == c
}

func (s *Symtab) Root() *Arena { return s.root }

// NewSymtab declares the predefined classes in a fresh root arena
func NewSymtab() *Symtab {
	syms := &Symtab{}
	syms.root = &Arena{syms: syms, classes: immutable.NewMap[string, *ClassSymbol](nil)}
	if _, err := syms.root.DeclareUnit(predefined); err != nil {
		panic(fmt.Sprintf("bad predefined declarations: %v", err))
	}
	must := func(name string) *ClassSymbol {
		c, ok := syms.root.Lookup(name)
		if !ok {
			panic("missing predefined class " + name)
		}
		return c
	}
	syms.Object = must("Object")
	syms.String = must("String")
	syms.Serializable = must("Serializable")
	syms.Cloneable = must("Cloneable")
	syms.Comparable = must("Comparable")
	syms.Number = must("Number")
	syms.Integer = must("Integer")
	syms.Long = must("Long")
	syms.Double = must("Double")
	syms.Float = must("Float")
	syms.Short = must("Short")
	syms.Byte = must("Byte")
	syms.Boolean = must("Boolean")
	syms.Character = must("Character")
	syms.Void = must("Void")
	syms.Throwable = must("Throwable")
	syms.ObjectType = syms.Object.Type()
	syms.StringType = syms.String.Type()
	return syms
}

const predefined = `
class Object {
	String toString();
	boolean equals(Object obj);
	int hashCode();
}
interface Serializable {}
interface Cloneable {}
interface Comparable<T> {
	int compareTo(T o);
}
interface CharSequence {
	int length();
	char charAt(int index);
}
final class String implements Serializable, Comparable<String>, CharSequence {
	int length();
	char charAt(int index);
	boolean isEmpty();
	String concat(String str);
	String substring(int begin);
	int compareTo(String other);
	static String valueOf(Object obj);
	static String valueOf(int i);
	static String format(String format, Object... args);
	String();
	String(String original);
}
abstract class Number implements Serializable {
	abstract int intValue();
	abstract long longValue();
	abstract double doubleValue();
}
final class Integer extends Number implements Comparable<Integer> {
	static int MAX_VALUE;
	int intValue();
	long longValue();
	double doubleValue();
	int compareTo(Integer other);
	static Integer valueOf(int i);
	static int parseInt(String s);
	static int compare(int x, int y);
	static String toString(int i);
	Integer(int value);
}
final class Long extends Number implements Comparable<Long> {
	int intValue();
	long longValue();
	double doubleValue();
	int compareTo(Long other);
	static Long valueOf(long l);
}
final class Double extends Number implements Comparable<Double> {
	int intValue();
	long longValue();
	double doubleValue();
	int compareTo(Double other);
	static Double valueOf(double d);
}
final class Float extends Number implements Comparable<Float> {
	int intValue();
	long longValue();
	double doubleValue();
	int compareTo(Float other);
}
final class Short extends Number implements Comparable<Short> {
	int intValue();
	long longValue();
	double doubleValue();
	int compareTo(Short other);
}
final class Byte extends Number implements Comparable<Byte> {
	int intValue();
	long longValue();
	double doubleValue();
	int compareTo(Byte other);
}
final class Boolean implements Serializable, Comparable<Boolean> {
	boolean booleanValue();
	int compareTo(Boolean other);
	static Boolean valueOf(boolean b);
}
final class Character implements Serializable, Comparable<Character> {
	char charValue();
	int compareTo(Character other);
	static boolean isDigit(char ch);
}
final class Void {}
class Throwable implements Serializable {
	String getMessage();
	Throwable();
	Throwable(String message);
}
class Exception extends Throwable {
	Exception();
	Exception(String message);
}
class RuntimeException extends Exception {
	RuntimeException();
	RuntimeException(String message);
}
interface Runnable {
	void run();
}
interface Iterator<E> {
	boolean hasNext();
	E next();
}
interface Iterable<T> {
	Iterator<T> iterator();
}
interface Collection<E> extends Iterable<E> {
	int size();
	boolean isEmpty();
	boolean add(E e);
	boolean contains(Object o);
}
interface List<E> extends Collection<E> {
	E get(int index);
	E set(int index, E element);
	static <E> List<E> of(E... elements);
}
class ArrayList<E> implements List<E>, Serializable, Cloneable {
	Iterator<E> iterator();
	int size();
	boolean isEmpty();
	boolean add(E e);
	boolean contains(Object o);
	E get(int index);
	E set(int index, E element);
	ArrayList();
	ArrayList(int capacity);
	ArrayList(Collection<E> c);
}
interface Supplier<T> {
	T get();
}
interface Function<T, R> {
	R apply(T t);
	default <V> Function<T, V> andThen(Function<R, V> after);
	static <T> Function<T, T> identity();
}
interface UnaryOperator<T> extends Function<T, T> {}
interface BiFunction<T, U, R> {
	R apply(T t, U u);
}
interface Consumer<T> {
	void accept(T t);
}
interface Predicate<T> {
	boolean test(T t);
	default Predicate<T> negate();
}
interface Comparator<T> {
	int compare(T o1, T o2);
	boolean equals(Object obj);
}
final class Optional<T> {
	static <T> Optional<T> of(T value);
	static <T> Optional<T> empty();
	<U> Optional<U> map(Function<T, U> mapper);
	<U> Optional<U> flatMap(Function<T, Optional<U>> mapper);
	T orElse(T other);
	T orElseGet(Supplier<T> other);
	T get();
}
final class Objects {
	static <T> T requireNonNull(T obj);
	static boolean equals(Object a, Object b);
}
final class Math {
	static int max(int a, int b);
	static long max(long a, long b);
	static double max(double a, double b);
	static int abs(int a);
}
class Collections {
	static <T> List<T> singletonList(T o);
	static <T> List<T> emptyList();
	static <T extends Comparable<T>> T max(Collection<T> coll);
	static <T> void sort(List<T> list, Comparator<T> c);
}
class Arrays {
	static <T> List<T> asList(T... a);
}
abstract class MethodHandle {
	@PolymorphicSignature Object invoke(Object... args);
	@PolymorphicSignature Object invokeExact(Object... args);
}
`
