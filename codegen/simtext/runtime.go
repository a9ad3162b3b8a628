package simtext

// Runtime returns src/runtime.rs's text: the same small ring-buffer-plus-
// delayed-event-queue vocabulary original_source/src/backend/simulator/
// runtime.rs's dump_runtime prints (Array/FIFO/XEQ, a Cycled trait, a
// cyclize timestamp formatter, and a hex-file loader), adapted so numeric
// casts go through a single ValueCastTo<T> trait. Only five impls are
// emitted: bool to bool, bool to u64, u64 to bool, u64 to BigUint and u64
// to BigInt. No other (src, dst) pair, such as the narrower unsigned types,
// the signed types, or casts out of BigInt/BigUint, has an impl.
func Runtime() string {
	return `use std::collections::BTreeMap;
use std::collections::VecDeque;
use std::fs::read_to_string;
use num_bigint::{BigInt, BigUint};

pub trait Cycled {
    fn cycle(&self) -> usize;
    fn pusher(&self) -> String;
}

pub struct ArrayWrite<T: Sized + Default + Clone> {
    cycle: usize,
    addr: usize,
    data: T,
    pusher: String,
}

impl<T: Sized + Default + Clone> ArrayWrite<T> {
    pub fn new(cycle: usize, addr: usize, data: T, pusher: String) -> Self {
        ArrayWrite { cycle, addr, data, pusher }
    }
}

impl<T: Sized + Default + Clone> Cycled for ArrayWrite<T> {
    fn cycle(&self) -> usize { self.cycle }
    fn pusher(&self) -> String { self.pusher.clone() }
}

pub struct Array<T: Sized + Default + Clone> {
    pub payload: Vec<T>,
    pub write: XEQ<ArrayWrite<T>>,
}

impl<T: Sized + Default + Clone> Array<T> {
    pub fn new(n: usize) -> Self {
        Array { payload: vec![T::default(); n], write: XEQ::new() }
    }
    pub fn new_with_init(payload: Vec<T>) -> Self {
        Array { payload, write: XEQ::new() }
    }
    pub fn tick(&mut self, cycle: usize) {
        if let Some(event) = self.write.pop(cycle) {
            self.payload[event.addr] = event.data;
        }
    }
}

pub struct FIFOPush<T: Sized> {
    cycle: usize,
    data: T,
    pusher: String,
}

impl<T: Sized> FIFOPush<T> {
    pub fn new(cycle: usize, data: T, pusher: String) -> Self {
        FIFOPush { cycle, data, pusher }
    }
}

impl<T: Sized> Cycled for FIFOPush<T> {
    fn cycle(&self) -> usize { self.cycle }
    fn pusher(&self) -> String { self.pusher.clone() }
}

pub struct FIFOPop {
    cycle: usize,
    pusher: String,
}

impl FIFOPop {
    pub fn new(cycle: usize, pusher: String) -> Self {
        FIFOPop { cycle, pusher }
    }
}

impl Cycled for FIFOPop {
    fn cycle(&self) -> usize { self.cycle }
    fn pusher(&self) -> String { self.pusher.clone() }
}

pub struct FIFO<T: Sized> {
    pub payload: VecDeque<T>,
    pub push: XEQ<FIFOPush<T>>,
    pub pop: XEQ<FIFOPop>,
}

impl<T: Sized> FIFO<T> {
    pub fn new() -> Self {
        FIFO { payload: VecDeque::new(), push: XEQ::new(), pop: XEQ::new() }
    }
    pub fn is_empty(&self) -> bool { self.payload.is_empty() }
    pub fn front(&self) -> Option<&T> { self.payload.front() }
    pub fn tick(&mut self, cycle: usize) {
        if self.pop.pop(cycle).is_some() {
            self.payload.pop_front().unwrap();
        }
        if let Some(event) = self.push.pop(cycle) {
            self.payload.push_back(event.data);
        }
    }
}

// XEQ is a delayed-event queue keyed by the cycle the event becomes
// visible: commits scheduled this cycle are only drained once the
// simulator's stamp reaches them, matching eir's commit-phase semantics.
pub struct XEQ<T: Sized + Cycled> {
    q: BTreeMap<usize, T>,
}

impl<T: Sized + Cycled> XEQ<T> {
    pub fn new() -> Self { XEQ { q: BTreeMap::new() } }

    pub fn push(&mut self, event: T) {
        if let Some(existing) = self.q.get(&event.cycle()) {
            panic!("cycle {}: already occupied by {}", existing.cycle(), existing.pusher());
        }
        self.q.insert(event.cycle(), event);
    }

    pub fn pop(&mut self, current: usize) -> Option<T> {
        match self.q.first_key_value() {
            Some((cycle, _)) if *cycle <= current => self.q.pop_first().map(|(_, event)| event),
            _ => None,
        }
    }
}

pub fn cyclize(stamp: usize) -> String {
    format!("Cycle @{}.{:02}", stamp / 100, stamp % 100)
}

pub fn load_hex_file(array: &mut Vec<u64>, init_file: &str) {
    let mut idx = 0usize;
    for line in read_to_string(init_file).expect("cannot open hex file").lines() {
        let line = match line.find("//") {
            Some(cut) => line[..cut].trim(),
            None => line.trim(),
        };
        if line.is_empty() {
            continue;
        }
        let line = line.replace('_', "");
        if let Some(addr) = line.strip_prefix('@') {
            idx = usize::from_str_radix(addr, 16).unwrap();
            continue;
        }
        array[idx] = u64::from_str_radix(&line, 16).unwrap();
        idx += 1;
    }
}

pub trait ValueCastTo<T> {
    fn cast(&self) -> T;
}

impl ValueCastTo<bool> for bool {
    fn cast(&self) -> bool { *self }
}

impl ValueCastTo<u64> for bool {
    fn cast(&self) -> u64 { if *self { 1 } else { 0 } }
}

impl ValueCastTo<bool> for u64 {
    fn cast(&self) -> bool { *self != 0 }
}

impl ValueCastTo<BigUint> for u64 {
    fn cast(&self) -> BigUint { BigUint::from(*self) }
}

impl ValueCastTo<BigInt> for u64 {
    fn cast(&self) -> BigInt { BigInt::from(*self) }
}
`
}
